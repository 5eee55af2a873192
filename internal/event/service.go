package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ticketnest/ticketnest/internal/minting"
)

const (
	defaultImageURL      = "https://images.unsplash.com/photo-1540575467063-178a50c2df87?w=1200"
	defaultOrganizerID   = "user_123"
	defaultOrganizerName = "Event Organizer"
)

var defaultFeatures = []string{
	"🎤 Amazing Experience",
	"🤝 Networking Opportunities",
	"🎁 Exclusive Perks",
	"📜 NFT Certificate",
	"🛠️ Hands-on Workshops",
	"🍽️ Catered Lunch",
}

var validate = validator.New()

// Service orchestrates event publication and lookup.
type Service struct {
	repo   Repository
	minter minting.Minter
	clock  Clock
	ids    IDGenerator
	logger *slog.Logger
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(repo Repository, minter minting.Minter, clock Clock, ids IDGenerator, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if minter == nil {
		return nil, errors.New("minter is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, minter: minter, clock: clock, ids: ids, logger: logger}, nil
}

// Create publishes a new event and its token collection. A collection the
// minting service refuses to create is replaced by a placeholder id so the
// event can still go on sale.
func (s *Service) Create(ctx context.Context, input CreateInput) (Event, error) {
	input = normalize(input)
	if err := validate.Struct(input); err != nil {
		return Event{}, fmt.Errorf("%w: %s", ErrInvalidInput, describe(err))
	}

	now := s.clock.Now().UTC()
	ev := Event{
		ID:            s.ids.NewID(),
		Name:          input.Name,
		Description:   input.Description,
		Date:          input.Date.UTC(),
		Location:      input.Location,
		Price:         input.Price,
		TotalTickets:  input.TotalTickets,
		ImageURL:      input.ImageURL,
		OrganizerID:   input.OrganizerID,
		OrganizerName: input.OrganizerName,
		Category:      input.Category,
		Features:      input.Features,
		Status:        StatusUpcoming,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tokenID, err := s.minter.CreateCollection(ctx, ev.Name, ev.TotalTickets)
	if err != nil {
		tokenID = placeholderTokenID()
		s.logger.Warn("token collection creation failed; using placeholder",
			slog.String("eventId", ev.ID),
			slog.String("tokenId", tokenID),
			slog.Any("error", err),
		)
	}
	ev.TokenID = tokenID

	if err := s.repo.Create(ctx, ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Get retrieves a single event.
func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Event{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns every event, newest date first.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

// RefreshStatuses moves events through upcoming, ongoing and completed based
// on their date. Cancelled events are left alone. It returns how many events
// changed.
func (s *Service) RefreshStatuses(ctx context.Context, duration time.Duration) (int, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now().UTC()
	changed := 0
	for _, ev := range events {
		next := statusAt(ev, now, duration)
		if next == ev.Status {
			continue
		}
		if err := s.repo.UpdateStatus(ctx, ev.ID, next, now); err != nil {
			return changed, fmt.Errorf("update status for %s: %w", ev.ID, err)
		}
		changed++
	}
	return changed, nil
}

func statusAt(ev Event, now time.Time, duration time.Duration) Status {
	if ev.Status == StatusCancelled {
		return StatusCancelled
	}
	switch {
	case !ev.Date.Add(duration).After(now):
		return StatusCompleted
	case !ev.Date.After(now):
		return StatusOngoing
	default:
		return StatusUpcoming
	}
}

func normalize(in CreateInput) CreateInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Category = Category(strings.ToLower(strings.TrimSpace(string(in.Category))))
	if in.Category == "" {
		in.Category = CategoryOther
	}
	if in.ImageURL == "" {
		in.ImageURL = defaultImageURL
	}
	if strings.TrimSpace(in.OrganizerID) == "" {
		in.OrganizerID = defaultOrganizerID
	}
	if strings.TrimSpace(in.OrganizerName) == "" {
		in.OrganizerName = defaultOrganizerName
	}
	if len(in.Features) == 0 {
		in.Features = append([]string(nil), defaultFeatures...)
	}
	return in
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			problems = append(problems, field+" is required")
		case "gt":
			problems = append(problems, field+" must be greater than "+fe.Param())
		case "oneof":
			problems = append(problems, field+" must be one of: "+strings.ReplaceAll(fe.Param(), " ", ", "))
		default:
			problems = append(problems, field+" is invalid")
		}
	}
	return strings.Join(problems, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
