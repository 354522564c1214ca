package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"
)

func sampleResult() map[string]interface{} {
	return map[string]interface{}{
		"payId":      "f16a9006-128a-46bc-8e2a-77a6ee99df75",
		"orderId":    "7f1c1d0e-3a7c-4b8e-9f43-1b2d3c4e5f60",
		"status":     "OK",
		"statusCode": "000",
		"amount":     json.Number("150.00"),
		"currency":   "MDL",
		"cardNumber": "510218******1124",
	}
}

func TestCanonicalJSONSortsKeysAndKeepsNumbers(t *testing.T) {
	encoded, err := CanonicalJSON(map[string]interface{}{
		"b":   json.Number("10.50"),
		"a":   "x<y>&z",
		"c":   map[string]interface{}{"z": 1, "y": true},
		"arr": []interface{}{"q"},
	})
	if err != nil {
		t.Fatalf("canonical json failed: %v", err)
	}
	expected := `{"a":"x<y>&z","arr":["q"],"b":10.50,"c":{"y":true,"z":1}}`
	if string(encoded) != expected {
		t.Fatalf("unexpected canonical form:\n got %s\nwant %s", encoded, expected)
	}
}

func TestSignMatchesIndependentHMAC(t *testing.T) {
	result := sampleResult()
	signature, err := Sign("sig-key", result)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	canonical, _ := CanonicalJSON(result)
	mac := hmac.New(sha256.New, []byte("sig-key"))
	mac.Write(canonical)
	if signature != hex.EncodeToString(mac.Sum(nil)) {
		t.Fatal("signature must be hex HMAC-SHA256 of the canonical result")
	}
}

func TestVerifyAcceptsHexAndBase64(t *testing.T) {
	result := sampleResult()
	signature, _ := Sign("sig-key", result)

	if !Verify("sig-key", result, signature) {
		t.Fatal("expected lowercase hex signature to verify")
	}
	if !Verify("sig-key", result, strings.ToUpper(signature)) {
		t.Fatal("expected uppercase hex signature to verify")
	}

	raw, _ := hex.DecodeString(signature)
	if !Verify("sig-key", result, base64.StdEncoding.EncodeToString(raw)) {
		t.Fatal("expected base64 signature to verify")
	}
}

func TestVerifyRejectsWrongKeyAndEmptyInputs(t *testing.T) {
	result := sampleResult()
	signature, _ := Sign("sig-key", result)

	if Verify("other-key", result, signature) {
		t.Fatal("expected wrong key to fail")
	}
	if Verify("", result, signature) {
		t.Fatal("expected empty key to fail")
	}
	if Verify("sig-key", result, "") {
		t.Fatal("expected empty signature to fail")
	}
	if Verify("sig-key", map[string]interface{}{}, signature) {
		t.Fatal("expected empty result to fail")
	}
	if Verify("sig-key", result, "not-a-signature") {
		t.Fatal("expected garbage signature to fail")
	}
}

func TestVerifyRejectsAnySingleByteMutation(t *testing.T) {
	result := sampleResult()
	signature, _ := Sign("sig-key", result)
	raw, _ := hex.DecodeString(signature)

	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 0x01
		if Verify("sig-key", result, hex.EncodeToString(mutated)) {
			t.Fatalf("mutation at byte %d verified", i)
		}
	}
}

func TestVerifyRejectsTamperedResult(t *testing.T) {
	result := sampleResult()
	signature, _ := Sign("sig-key", result)

	result["status"] = "FAIL"
	if Verify("sig-key", result, signature) {
		t.Fatal("expected tampered status to fail")
	}

	result = sampleResult()
	result["amount"] = json.Number("150.0")
	if Verify("sig-key", result, signature) {
		t.Fatal("expected changed number spelling to fail")
	}
}
