package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ticketnest/ticketnest/internal/event"
	"github.com/ticketnest/ticketnest/pkg/auth"
	sharederrors "github.com/ticketnest/ticketnest/pkg/errors"
)

// Accepted event date layouts, most specific first.
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

type createEventRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Date          string   `json:"date"`
	Location      string   `json:"location"`
	Price         float64  `json:"price"`
	TotalTickets  int      `json:"totalTickets"`
	Category      string   `json:"category"`
	ImageURL      string   `json:"imageUrl"`
	OrganizerID   string   `json:"organizerId"`
	OrganizerName string   `json:"organizerName"`
	Features      []string `json:"features"`
}

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	events, err := h.events.List(ctx)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []event.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "events": events})
}

func (h *handler) getEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	ev, err := h.events.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": ev})
}

func (h *handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	var date time.Time
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := parseEventDate(req.Date)
		if err != nil {
			writeError(w, r, sharederrors.CodeBadRequest, "Invalid date format")
			return
		}
		date = parsed
	}

	organizerID := req.OrganizerID
	if user, ok := auth.UserFromContext(r.Context()); ok && strings.TrimSpace(organizerID) == "" {
		organizerID = user.UserID
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	ev, err := h.events.Create(ctx, event.CreateInput{
		Name:          req.Name,
		Description:   req.Description,
		Date:          date,
		Location:      req.Location,
		Price:         req.Price,
		TotalTickets:  req.TotalTickets,
		Category:      event.Category(req.Category),
		ImageURL:      req.ImageURL,
		OrganizerID:   organizerID,
		OrganizerName: req.OrganizerName,
		Features:      req.Features,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"eventId": ev.ID,
		"tokenId": ev.TokenID,
		"event":   ev,
		"message": "Event created successfully",
	})
}

func parseEventDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date %q", raw)
}
