package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ticketnest/ticketnest/internal/account"
	sharederrors "github.com/ticketnest/ticketnest/pkg/errors"
)

type recordPurchaseRequest struct {
	AccountID string `json:"accountId"`
	EventID   string `json:"eventId"`
}

type awardBadgeRequest struct {
	AccountID string `json:"accountId"`
	BadgeID   string `json:"badgeId"`
	AdminKey  string `json:"adminKey"`
}

func (h *handler) getBadges(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(r.URL.Query().Get("accountId"))
	if accountID == "" {
		writeError(w, r, sharederrors.CodeBadRequest, "Account ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	resp, err := h.accounts.Status(ctx, accountID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// recordPurchase applies a single-ticket purchase to the account and reports
// the badges it unlocked.
func (h *handler) recordPurchase(w http.ResponseWriter, r *http.Request) {
	var req recordPurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	accountID := strings.TrimSpace(req.AccountID)
	res, err := h.accounts.RecordPurchase(ctx, account.PurchaseInput{
		AccountID:     accountID,
		EventID:       strings.TrimSpace(req.EventID),
		Quantity:      1,
		WalletAddress: accountID,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	for _, b := range res.NewBadges {
		h.metrics.BadgeAwarded(b.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"newBadges": res.NewBadges,
		"stats":     res.Stats,
	})
}

func (h *handler) awardBadge(w http.ResponseWriter, r *http.Request) {
	var req awardBadgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}
	if !h.adminAuthorized(req.AdminKey) {
		writeError(w, r, sharederrors.CodeUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	rec, err := h.accounts.AwardSpecial(ctx, req.AccountID, req.BadgeID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.metrics.BadgeAwarded(rec.ID)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Badge awarded successfully",
		"badge":   rec,
	})
}

// adminAuthorized requires a configured key and an exact match. An unset
// key rejects every request.
func (h *handler) adminAuthorized(provided string) bool {
	if h.adminKey == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.adminKey)) == 1
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	acct, err := h.accounts.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}
