package gateway

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// CanonicalJSON serialises v with sorted object keys, no insignificant
// whitespace and no HTML escaping. Numbers decoded as json.Number keep their
// original spelling.
func CanonicalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Sign returns the lowercase hex HMAC-SHA256 of the canonical result.
func Sign(key string, result map[string]interface{}) (string, error) {
	digest, err := digest(key, result)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest), nil
}

// Verify accepts the signature in hex or standard base64. Comparison is
// constant time; an empty key or signature never verifies.
func Verify(key string, result map[string]interface{}, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || strings.TrimSpace(key) == "" || len(result) == 0 {
		return false
	}

	expected, err := digest(key, result)
	if err != nil {
		return false
	}

	if candidate, err := hex.DecodeString(signature); err == nil && hmac.Equal(candidate, expected) {
		return true
	}
	if candidate, err := base64.StdEncoding.DecodeString(signature); err == nil && hmac.Equal(candidate, expected) {
		return true
	}
	return false
}

func digest(key string, result map[string]interface{}) ([]byte, error) {
	payload, err := CanonicalJSON(result)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, []byte(key))
	_, _ = mac.Write(payload)
	return mac.Sum(nil), nil
}
