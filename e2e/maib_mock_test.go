//go:build e2e
// +build e2e

package e2e

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// maibMock stands in for the MAIB merchant API. The e2e database seeds the
// active credential set with api_base_url pointing at it.
type maibMock struct {
	mu      sync.Mutex
	lastPay string
	refunds int
}

var maib = &maibMock{}

func (m *maibMock) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	switch r.URL.Path {
	case "/generate-token":
		writeMAIB(w, map[string]interface{}{"accessToken": "e2e-token", "expiresIn": 300})
	case "/pay":
		m.lastPay = uuid.NewString()
		writeMAIB(w, map[string]interface{}{"payId": m.lastPay, "payUrl": "https://maib.example/pay/" + m.lastPay})
	case "/pay-info":
		writeMAIB(w, map[string]interface{}{"payId": m.lastPay, "status": "PENDING"})
	case "/refund":
		m.refunds++
		payID, _ := body["payId"].(string)
		writeMAIB(w, map[string]interface{}{"payId": payID, "status": "OK", "statusCode": "400", "statusMessage": "Refunded"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (m *maibMock) lastPayID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPay
}

func (m *maibMock) refundCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refunds
}

func writeMAIB(w http.ResponseWriter, result map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": result})
}
