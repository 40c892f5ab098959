package wallet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(h *WebhookHandler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/psp", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("X-PSP-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.HandlePSP(rec, req)
	return rec
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	h := NewWebhookHandler(nil, "whsec_test")

	rec := postWebhook(h, `{"status":"captured"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := NewWebhookHandler(nil, "whsec_test")
	body := `{"status":"captured"}`

	rec := postWebhook(h, body, sign("wrong_secret", body))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	h := NewWebhookHandler(nil, "whsec_test")
	signature := sign("whsec_test", `{"amount_cents":100,"status":"captured"}`)

	rec := postWebhook(h, `{"amount_cents":100000,"status":"captured"}`, signature)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}

func TestWebhookRejectsAllWhenSecretUnset(t *testing.T) {
	h := NewWebhookHandler(nil, "")
	body := `{"status":"captured"}`

	rec := postWebhook(h, body, sign("", body))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned deployments must reject everything, got %d", rec.Code)
	}
}

func TestWebhookIgnoresNonCapturedIntents(t *testing.T) {
	// svc is never touched for non-captured statuses.
	h := NewWebhookHandler(nil, "whsec_test")
	body := `{"payment_intent_id":"pi_1","user_id":"b2c6a7df-6a3e-44f5-9a2b-0f4a54a2f9b1","amount_cents":100,"status":"failed"}`

	rec := postWebhook(h, body, sign("whsec_test", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200 acknowledgement", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ignored") {
		t.Fatalf("expected ignored acknowledgement, got %s", rec.Body.String())
	}
}

func TestWebhookRejectsInvalidJSON(t *testing.T) {
	h := NewWebhookHandler(nil, "whsec_test")
	body := `{not json`

	rec := postWebhook(h, body, sign("whsec_test", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}
