// Package minting talks to the token minting service that issues one
// non-fungible token per ticket.
package minting

import (
	"context"
	"errors"
	"time"
)

// Metadata is attached to every minted ticket token.
type Metadata struct {
	EventID      string    `json:"eventId" firestore:"event_id"`
	EventName    string    `json:"eventName" firestore:"event_name"`
	EventDate    time.Time `json:"eventDate" firestore:"event_date"`
	Location     string    `json:"location" firestore:"location"`
	Owner        string    `json:"owner" firestore:"owner"`
	TicketNumber int       `json:"ticketNumber" firestore:"ticket_number"`
	MintedAt     time.Time `json:"mintedAt" firestore:"minted_at"`
}

// Receipt identifies a minted token.
type Receipt struct {
	TokenID      string `json:"tokenId"`
	SerialNumber string `json:"serialNumber"`
}

// Minter creates per-event token collections and mints tickets into them.
type Minter interface {
	CreateCollection(ctx context.Context, name string, maxSupply int) (string, error)
	Mint(ctx context.Context, tokenID string, metadata Metadata) (Receipt, error)
}

// ErrUpstream wraps any failure reported by the minting service.
var ErrUpstream = errors.New("minting service failure")
