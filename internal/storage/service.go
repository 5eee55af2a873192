package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
)

const signedURLTTL = 24 * time.Hour

// Service stores ticket QR images in Cloud Storage.
type Service struct {
	client     *storage.Client
	bucketName string
}

// NewService creates a new storage service
func NewService(ctx context.Context, bucketName string) (*Service, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Service{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// ObjectPath is where the QR image of a ticket lives.
func ObjectPath(eventID, ticketID string) string {
	return fmt.Sprintf("qrcodes/%s/%s.png", eventID, ticketID)
}

// UploadPNG writes png to objectPath and returns a signed URL for it.
func (s *Service) UploadPNG(ctx context.Context, objectPath string, png []byte) (string, error) {
	writer := s.client.Bucket(s.bucketName).Object(objectPath).NewWriter(ctx)
	writer.ContentType = http.DetectContentType(png)
	writer.CacheControl = "private, max-age=3600"

	if _, err := io.Copy(writer, bytes.NewReader(png)); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to write to storage: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	return s.SignedURL(ctx, objectPath)
}

// SignedURL creates a short-lived V4 GET URL for an object.
func (s *Service) SignedURL(_ context.Context, objectPath string) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(signedURLTTL),
	}

	url, err := s.client.Bucket(s.bucketName).SignedURL(objectPath, opts)
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return url, nil
}

// Close closes the storage client
func (s *Service) Close() error {
	return s.client.Close()
}

// UploadTicketQR stores a ticket's QR image under ObjectPath.
func (s *Service) UploadTicketQR(ctx context.Context, eventID, ticketID string, png []byte) (string, string, error) {
	path := ObjectPath(eventID, ticketID)
	url, err := s.UploadPNG(ctx, path, png)
	if err != nil {
		return "", "", err
	}
	return path, url, nil
}
