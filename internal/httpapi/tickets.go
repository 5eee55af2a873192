package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ticketnest/ticketnest/internal/ticket"
	"github.com/ticketnest/ticketnest/pkg/auth"
	sharederrors "github.com/ticketnest/ticketnest/pkg/errors"
)

type mintRequest struct {
	EventID       string `json:"eventId"`
	Quantity      int    `json:"quantity"`
	WalletAddress string `json:"walletAddress"`
	UserID        string `json:"userId"`
}

func (h *handler) listTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	res, err := h.tickets.List(ctx, ticket.ListInput{
		WalletAddress: q.Get("walletAddress"),
		UserID:        q.Get("userId"),
		EventID:       q.Get("eventId"),
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"tickets":        res.Tickets,
		"ticketsByEvent": res.TicketsByEvent,
		"totalTickets":   res.TotalTickets,
	})
}

// mintTickets buys tickets for an event. An authenticated caller always buys
// as themselves.
func (h *handler) mintTickets(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}
	if user, ok := auth.UserFromContext(r.Context()); ok && user.UserID != "" {
		req.UserID = user.UserID
	}

	ctx, cancel := context.WithTimeout(r.Context(), mintTimeout)
	defer cancel()

	res, err := h.tickets.Purchase(ctx, ticket.PurchaseInput{
		EventID:       req.EventID,
		Quantity:      req.Quantity,
		WalletAddress: req.WalletAddress,
		UserID:        req.UserID,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":         true,
		"tickets":         res.Tickets,
		"transactionHash": res.TransactionHash,
		"newBadges":       res.NewBadges,
		"message":         fmt.Sprintf("Successfully minted %d ticket(s)", len(res.Tickets)),
	})
}
