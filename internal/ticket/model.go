package ticket

import (
	"context"
	"errors"
	"time"

	"github.com/ticketnest/ticketnest/internal/minting"
)

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusActive      Status = "active"
	StatusUsed        Status = "used"
	StatusTransferred Status = "transferred"
)

// MaxQuantity caps the number of tickets bought in one purchase.
const MaxQuantity = 10

// anonymousOwner is recorded when a purchase carries no user id.
const anonymousOwner = "anonymous"

// Ticket is one minted seat.
type Ticket struct {
	ID              string           `json:"id" firestore:"-"`
	EventID         string           `json:"eventId" firestore:"event_id"`
	EventName       string           `json:"eventName" firestore:"event_name"`
	EventDate       time.Time        `json:"eventDate" firestore:"event_date"`
	EventLocation   string           `json:"eventLocation" firestore:"event_location"`
	EventImageURL   string           `json:"eventImageUrl" firestore:"event_image_url"`
	OwnerID         string           `json:"ownerId" firestore:"owner_id"`
	OwnerWallet     string           `json:"ownerWallet" firestore:"owner_wallet"`
	TokenID         string           `json:"tokenId" firestore:"token_id"`
	SerialNumber    string           `json:"serialNumber" firestore:"serial_number"`
	PlaceholderMint bool             `json:"placeholderMint" firestore:"placeholder_mint"`
	QRCode          string           `json:"qrCode" firestore:"qr_code"`
	QRObject        string           `json:"-" firestore:"qr_object,omitempty"`
	Status          Status           `json:"status" firestore:"status"`
	PurchaseDate    time.Time        `json:"purchaseDate" firestore:"purchase_date"`
	Metadata        minting.Metadata `json:"metadata" firestore:"metadata"`
}

// PurchaseInput describes a request to buy tickets.
type PurchaseInput struct {
	EventID       string
	Quantity      int
	WalletAddress string
	UserID        string
}

// MintedTicket is the per-ticket summary returned to buyers.
type MintedTicket struct {
	TicketID     string `json:"ticketId"`
	TokenID      string `json:"tokenId"`
	SerialNumber string `json:"serialNumber"`
	QRCode       string `json:"qrCode"`
}

// PurchaseResult is returned by a successful purchase.
type PurchaseResult struct {
	Tickets         []MintedTicket `json:"tickets"`
	TransactionHash string         `json:"transactionHash"`
	NewBadges       []string       `json:"newBadges"`
}

// ListInput selects tickets by owner. WalletAddress wins over UserID when both are set.
type ListInput struct {
	WalletAddress string
	UserID        string
	EventID       string
}

// EventGroup bundles one owner's tickets for a single event.
type EventGroup struct {
	EventID       string    `json:"eventId"`
	EventName     string    `json:"eventName"`
	EventDate     time.Time `json:"eventDate"`
	EventLocation string    `json:"eventLocation"`
	EventImageURL string    `json:"eventImageUrl"`
	Tickets       []Ticket  `json:"tickets"`
}

// ListResult is returned by List.
type ListResult struct {
	Tickets        []Ticket     `json:"tickets"`
	TicketsByEvent []EventGroup `json:"ticketsByEvent"`
	TotalTickets   int          `json:"totalTickets"`
}

// Repository encapsulates persistence for tickets.
type Repository interface {
	Create(ctx context.Context, t Ticket) error
	// List returns matching tickets, most recent purchase first.
	List(ctx context.Context, filter ListInput) ([]Ticket, error)
}

// QRStore keeps rendered QR images outside the ticket document.
type QRStore interface {
	UploadTicketQR(ctx context.Context, eventID, ticketID string, png []byte) (objectPath, url string, err error)
	SignedURL(ctx context.Context, objectPath string) (string, error)
}

var (
	// ErrInvalidInput indicates the provided data failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates a duplicate identifier collision.
	ErrConflict = errors.New("ticket already exists")
)
