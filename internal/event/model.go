package event

import (
	"context"
	"errors"
	"time"
)

// Category groups events for browsing.
type Category string

const (
	CategoryConcert    Category = "concert"
	CategoryConference Category = "conference"
	CategorySports     Category = "sports"
	CategoryTheater    Category = "theater"
	CategoryOther      Category = "other"
)

// Status is the lifecycle state of an event.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Event is a ticketed happening backed by one token collection.
type Event struct {
	ID            string    `json:"id" firestore:"-"`
	Name          string    `json:"name" firestore:"name"`
	Description   string    `json:"description" firestore:"description"`
	Date          time.Time `json:"date" firestore:"date"`
	Location      string    `json:"location" firestore:"location"`
	Price         float64   `json:"price" firestore:"price"`
	TotalTickets  int       `json:"totalTickets" firestore:"total_tickets"`
	TicketsSold   int       `json:"ticketsSold" firestore:"tickets_sold"`
	ImageURL      string    `json:"imageUrl" firestore:"image_url"`
	OrganizerID   string    `json:"organizerId" firestore:"organizer_id"`
	OrganizerName string    `json:"organizerName" firestore:"organizer_name"`
	Category      Category  `json:"category" firestore:"category"`
	Features      []string  `json:"features" firestore:"features"`
	Status        Status    `json:"status" firestore:"status"`
	TokenID       string    `json:"tokenId" firestore:"token_id"`
	CreatedAt     time.Time `json:"createdAt" firestore:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" firestore:"updated_at"`
}

// Remaining is the number of seats still for sale.
func (e Event) Remaining() int {
	if left := e.TotalTickets - e.TicketsSold; left > 0 {
		return left
	}
	return 0
}

// OnSale reports whether tickets may still be bought.
func (e Event) OnSale() bool {
	return e.Status != StatusCancelled && e.Status != StatusCompleted
}

// CreateInput captures the data required to publish an event.
type CreateInput struct {
	Name          string    `json:"name" validate:"required,max=200"`
	Description   string    `json:"description" validate:"required"`
	Date          time.Time `json:"date" validate:"required"`
	Location      string    `json:"location" validate:"required"`
	Price         float64   `json:"price" validate:"gt=0"`
	TotalTickets  int       `json:"totalTickets" validate:"gt=0"`
	Category      Category  `json:"category" validate:"omitempty,oneof=concert conference sports theater other"`
	ImageURL      string    `json:"imageUrl" validate:"omitempty,url"`
	OrganizerID   string    `json:"organizerId"`
	OrganizerName string    `json:"organizerName"`
	Features      []string  `json:"features" validate:"omitempty,dive,required"`
}

// Repository encapsulates persistence for events.
type Repository interface {
	Create(ctx context.Context, e Event) error
	Get(ctx context.Context, id string) (Event, error)
	// List returns every event ordered by date, newest first.
	List(ctx context.Context) ([]Event, error)
	// Reserve atomically checks availability and claims quantity seats. The
	// returned event reflects the state before the claim.
	Reserve(ctx context.Context, id string, quantity int) (Event, error)
	// IncrementTicketsSold adjusts the sold counter by delta; negative deltas release seats.
	IncrementTicketsSold(ctx context.Context, id string, delta int) error
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
}

var (
	// ErrNotFound indicates the event does not exist.
	ErrNotFound = errors.New("event not found")
	// ErrConflict indicates a duplicate identifier collision.
	ErrConflict = errors.New("event already exists")
	// ErrInvalidInput indicates the provided data failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSoldOut indicates fewer seats remain than requested.
	ErrSoldOut = errors.New("not enough tickets available")
	// ErrNotOnSale indicates the event is cancelled or already over.
	ErrNotOnSale = errors.New("event is not on sale")
)

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces unique identifiers for new documents.
type IDGenerator interface {
	NewID() string
}
