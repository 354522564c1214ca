package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"strings"
)

// Callback is a normalised gateway notification. The gateway sends either a
// flat object with a top-level signature or {"result": {...}, "signature": ...};
// both end up with Result holding the signed object.
type Callback struct {
	Result    map[string]interface{}
	Signature string
	Payload   map[string]interface{}
}

func ParseCallback(body []byte, contentType string) (*Callback, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)

	var payload map[string]interface{}
	switch strings.ToLower(mediaType) {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
		}
		payload = formToMap(values)
	default:
		decoded, err := decodeObject(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
		}
		payload = decoded
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedCallback)
	}

	cb := &Callback{
		Payload:   payload,
		Signature: parseStringish(payload["signature"]),
	}
	if nested, ok := payload["result"].(map[string]interface{}); ok {
		cb.Result = nested
	} else {
		cb.Result = make(map[string]interface{}, len(payload))
		for k, v := range payload {
			if k == "signature" {
				continue
			}
			cb.Result[k] = v
		}
	}
	if len(cb.Result) == 0 {
		return nil, fmt.Errorf("%w: no result object", ErrMalformedCallback)
	}

	return cb, nil
}

func (c *Callback) Fields() *Result {
	return ResultFromMap(c.Result)
}

// PayloadJSON is the full notification as stored for audit.
func (c *Callback) PayloadJSON() string {
	encoded, err := CanonicalJSON(c.Payload)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

func decodeObject(body []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var out map[string]interface{}
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func formToMap(values url.Values) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		if len(v) == 0 {
			continue
		}
		if k == "result" {
			if nested, err := decodeObject([]byte(v[0])); err == nil {
				out[k] = nested
				continue
			}
		}
		out[k] = v[0]
	}
	return out
}
