package wallet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cliplink/cliplink-api/internal/pkg/response"
)

const signatureHeader = "X-PSP-Signature"

// pspEvent is the payment-intent notification the PSP posts on capture.
type pspEvent struct {
	PaymentIntentID string `json:"payment_intent_id"`
	UserID          string `json:"user_id"`
	AmountCents     int64  `json:"amount_cents"`
	Status          string `json:"status"`
}

// WebhookHandler confirms PSP payment intents into wallet deposits.
type WebhookHandler struct {
	svc    *Service
	secret []byte
}

func NewWebhookHandler(svc *Service, secret string) *WebhookHandler {
	return &WebhookHandler{svc: svc, secret: []byte(secret)}
}

// HandlePSP verifies the signature before trusting anything in the body.
// Deposits happen only for captured intents; every other status is
// acknowledged and ignored so the PSP stops retrying.
func (h *WebhookHandler) HandlePSP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		response.BadRequest(w, "unreadable body")
		return
	}

	if err := h.verifySignature(body, r.Header.Get(signatureHeader)); err != nil {
		log.Warn().Err(err).Str("ip", r.RemoteAddr).Msg("PSP webhook signature mismatch")
		response.Unauthorized(w, "invalid signature")
		return
	}

	var event pspEvent
	if err := json.Unmarshal(body, &event); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if event.Status != "captured" {
		response.OK(w, map[string]string{"status": "ignored"})
		return
	}

	ownerID, err := uuid.Parse(event.UserID)
	if err != nil {
		response.BadRequest(w, "invalid user_id")
		return
	}

	if err := h.svc.Deposit(r.Context(), ownerID, event.AmountCents, event.PaymentIntentID); err != nil {
		if errors.Is(err, ErrReferenceConflict) {
			// Same intent, different amount: never apply, surface for review.
			log.Error().
				Str("payment_intent_id", event.PaymentIntentID).
				Int64("amount", event.AmountCents).
				Msg("PSP webhook amount conflict")
			response.BusinessError(w, "REFERENCE_CONFLICT", "payment reference already used with a different amount")
			return
		}
		if errors.Is(err, ErrInvalidAmount) {
			response.BadRequest(w, "invalid amount")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "applied"})
}

// verifySignature rejects everything when the shared secret is unset, so a
// misconfigured deployment never accepts unsigned payloads.
func (h *WebhookHandler) verifySignature(body []byte, signature string) error {
	if len(h.secret) == 0 || signature == "" {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// WebhookRoutes returns webhook router (no auth, signature verification only)
func (h *WebhookHandler) WebhookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/psp", h.HandlePSP)
	return r
}
