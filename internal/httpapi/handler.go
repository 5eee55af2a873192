package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ticketnest/ticketnest/internal/account"
	"github.com/ticketnest/ticketnest/internal/badge"
	"github.com/ticketnest/ticketnest/internal/event"
	"github.com/ticketnest/ticketnest/internal/metrics"
	"github.com/ticketnest/ticketnest/internal/ticket"
	sharederrors "github.com/ticketnest/ticketnest/pkg/errors"
)

const (
	serviceTimeout  = 10 * time.Second
	mintTimeout     = 45 * time.Second
	maxPayloadBytes = 1 << 20 // 1MB
)

// Dependencies bundles what the HTTP surface needs.
type Dependencies struct {
	Accounts       account.Service
	Events         *event.Service
	Tickets        *ticket.Service
	Metrics        *metrics.Metrics
	AdminSecretKey string
	Logger         *slog.Logger
}

type handler struct {
	accounts account.Service
	events   *event.Service
	tickets  *ticket.Service
	metrics  *metrics.Metrics
	adminKey string
	logger   *slog.Logger
}

// RegisterRoutes mounts the public API on r and the mutating routes behind
// requireAuth. A nil requireAuth leaves every route open.
func RegisterRoutes(r chi.Router, deps Dependencies, requireAuth func(http.Handler) http.Handler) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{
		accounts: deps.Accounts,
		events:   deps.Events,
		tickets:  deps.Tickets,
		metrics:  deps.Metrics,
		adminKey: deps.AdminSecretKey,
		logger:   logger,
	}

	r.Get("/v1/badges", h.getBadges)
	r.Post("/v1/badges", h.recordPurchase)
	r.Put("/v1/badges", h.awardBadge)
	r.Get("/v1/accounts/{id}", h.getAccount)

	r.Get("/v1/events", h.listEvents)
	r.Get("/v1/events/{id}", h.getEvent)
	r.Get("/v1/tickets", h.listTickets)

	r.Group(func(r chi.Router) {
		if requireAuth != nil {
			r.Use(requireAuth)
		}
		r.Post("/v1/events", h.createEvent)
		r.Post("/v1/tickets/mint", h.mintTickets)
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxPayloadBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (h *handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, account.ErrMissingAccountID):
		writeError(w, r, sharederrors.CodeBadRequest, "Account ID is required")
	case errors.Is(err, account.ErrMissingBadgeID):
		writeError(w, r, sharederrors.CodeBadRequest, "Account ID and badge ID are required")
	case errors.Is(err, account.ErrInvalidQuantity),
		errors.Is(err, event.ErrInvalidInput),
		errors.Is(err, ticket.ErrInvalidInput):
		writeError(w, r, sharederrors.CodeBadRequest, trimSentinel(err))
	case errors.Is(err, badge.ErrNotFound):
		writeError(w, r, sharederrors.CodeNotFound, "Badge not found")
	case errors.Is(err, event.ErrNotFound):
		writeError(w, r, sharederrors.CodeNotFound, "Event not found")
	case errors.Is(err, badge.ErrAlreadyEarned):
		writeError(w, r, sharederrors.CodeConflict, "Badge already earned")
	case errors.Is(err, event.ErrSoldOut):
		writeError(w, r, sharederrors.CodeConflict, "Not enough tickets available")
	case errors.Is(err, event.ErrNotOnSale):
		writeError(w, r, sharederrors.CodeConflict, "Event is not on sale")
	case errors.Is(err, event.ErrConflict), errors.Is(err, ticket.ErrConflict):
		writeError(w, r, sharederrors.CodeConflict, "resource already exists")
	default:
		h.logRequestError(r.Context(), "request failed", err)
		writeError(w, r, sharederrors.CodeInternal, "internal server error")
	}
}

// trimSentinel drops the "invalid input: " prefix added by the domain packages.
func trimSentinel(err error) string {
	msg := strings.TrimSpace(err.Error())
	if i := strings.Index(msg, ":"); i >= 0 {
		msg = strings.TrimSpace(msg[i+1:])
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code, message string) {
	writeJSON(w, sharederrors.ToStatusCode(code), sharederrors.ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func (h *handler) logRequestError(ctx context.Context, message string, err error) {
	if err == nil {
		return
	}
	attrs := []any{slog.Any("error", err)}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		attrs = append(attrs, slog.String("requestId", reqID))
	}
	h.logger.Error(message, attrs...)
}
