// Package qrcode renders the scannable code printed on each ticket.
package qrcode

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	goqr "github.com/skip2/go-qrcode"
)

const (
	imageSize     = 300
	dataURIPrefix = "data:image/png;base64,"
)

// Payload is the JSON document encoded into a ticket's QR code.
type Payload struct {
	TicketID string `json:"ticketId"`
	EventID  string `json:"eventId"`
	Owner    string `json:"owner"`
}

// Image is a rendered QR code.
type Image struct {
	Content string
	PNG     []byte
	DataURI string
}

// TicketID joins a token id and serial the way scanners expect.
func TicketID(tokenID, serial string) string {
	return tokenID + "-" + serial
}

// Generate encodes p as a 300px PNG with medium error recovery.
func Generate(p Payload) (Image, error) {
	content, err := json.Marshal(p)
	if err != nil {
		return Image{}, fmt.Errorf("encode qr payload: %w", err)
	}

	png, err := goqr.Encode(string(content), goqr.Medium, imageSize)
	if err != nil {
		return Image{}, fmt.Errorf("render qr code: %w", err)
	}

	return Image{
		Content: string(content),
		PNG:     png,
		DataURI: dataURIPrefix + base64.StdEncoding.EncodeToString(png),
	}, nil
}
