package gateway

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"
)

func TestParseCallbackNestedJSON(t *testing.T) {
	body := []byte(`{"result":{"payId":"pay-1","status":"OK","amount":150.00},"signature":"abc"}`)

	cb, err := ParseCallback(body, "application/json; charset=utf-8")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cb.Signature != "abc" {
		t.Fatalf("unexpected signature: %s", cb.Signature)
	}
	if _, ok := cb.Result["signature"]; ok {
		t.Fatal("signature must not be part of the signed result")
	}
	if cb.Result["amount"].(json.Number).String() != "150.00" {
		t.Fatalf("expected number spelling preserved, got %v", cb.Result["amount"])
	}
	fields := cb.Fields()
	if fields.PayID != "pay-1" || fields.Status != "OK" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestParseCallbackFlatJSON(t *testing.T) {
	body := []byte(`{"payId":"pay-2","status":"FAIL","statusMessage":"Declined","signature":"def"}`)

	cb, err := ParseCallback(body, "")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cb.Signature != "def" || len(cb.Result) != 3 {
		t.Fatalf("unexpected callback: %+v", cb)
	}
	if cb.Fields().StatusMessage != "Declined" {
		t.Fatalf("unexpected fields: %+v", cb.Fields())
	}
	if _, ok := cb.Payload["signature"]; !ok {
		t.Fatal("payload must keep the full notification")
	}
}

func TestParseCallbackFormEncoded(t *testing.T) {
	form := url.Values{}
	form.Set("result", `{"payId":"pay-3","status":"OK"}`)
	form.Set("signature", "ghi")

	cb, err := ParseCallback([]byte(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cb.Signature != "ghi" || cb.Fields().PayID != "pay-3" {
		t.Fatalf("unexpected callback: %+v", cb)
	}
}

func TestParseCallbackFlatForm(t *testing.T) {
	form := url.Values{}
	form.Set("payId", "pay-4")
	form.Set("status", "OK")
	form.Set("signature", "jkl")

	cb, err := ParseCallback([]byte(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cb.Fields().PayID != "pay-4" || cb.Fields().Status != "OK" {
		t.Fatalf("unexpected fields: %+v", cb.Fields())
	}
}

func TestParseCallbackRejectsMalformedBodies(t *testing.T) {
	cases := map[string]string{
		"not json":     `payId=1`,
		"empty object": `{}`,
		"array":        `[1,2]`,
		"signature":    `{"signature":"x"}`,
	}
	for name, body := range cases {
		if _, err := ParseCallback([]byte(body), "application/json"); !errors.Is(err, ErrMalformedCallback) {
			t.Fatalf("%s: expected ErrMalformedCallback, got %v", name, err)
		}
	}
}

func TestCallbackSignatureRoundTrip(t *testing.T) {
	result := map[string]interface{}{"payId": "pay-5", "status": "OK", "amount": json.Number("10.00")}
	signature, _ := Sign("sig-key", result)
	encodedResult, _ := json.Marshal(result)

	body := []byte(`{"result":` + string(encodedResult) + `,"signature":"` + signature + `"}`)
	cb, err := ParseCallback(body, "application/json")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !Verify("sig-key", cb.Result, cb.Signature) {
		t.Fatal("expected parsed callback to verify")
	}
}

func TestResultPaymentStatus(t *testing.T) {
	cases := map[string]string{
		"OK":       "OK",
		"ok":       "OK",
		"DECLINED": "FAIL",
		"FAIL":     "FAIL",
		"TIMEOUT":  "CANCELLED",
		"CREATED":  "PENDING",
		"REVERSED": "REFUNDED",
	}
	for raw, want := range cases {
		got, ok := (&Result{Status: raw}).PaymentStatus()
		if !ok || string(got) != want {
			t.Fatalf("%s: expected %s, got %s (ok=%v)", raw, want, got, ok)
		}
	}
	if _, ok := (&Result{Status: ""}).PaymentStatus(); ok {
		t.Fatal("empty status must not map")
	}
	if _, ok := (&Result{Status: "SOMETHING"}).PaymentStatus(); ok {
		t.Fatal("unknown status must not map")
	}
}
