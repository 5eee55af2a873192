package minting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const tokenSymbol = "TIX"

// RelayClient calls a minting relay that holds the treasury keys.
type RelayClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewRelayClient creates a relay client. apiKey may be empty for unauthenticated relays.
func NewRelayClient(baseURL, apiKey string) *RelayClient {
	return &RelayClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
	}
}

type createCollectionRequest struct {
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	MaxSupply int    `json:"maxSupply"`
}

type createCollectionResponse struct {
	TokenID string `json:"tokenId"`
}

type mintRequest struct {
	Metadata Metadata `json:"metadata"`
}

func (c *RelayClient) CreateCollection(ctx context.Context, name string, maxSupply int) (string, error) {
	var out createCollectionResponse
	body := createCollectionRequest{Name: name + " Tickets", Symbol: tokenSymbol, MaxSupply: maxSupply}
	if err := c.post(ctx, "/collections", body, &out); err != nil {
		return "", err
	}
	if out.TokenID == "" {
		return "", fmt.Errorf("%w: relay returned empty token id", ErrUpstream)
	}
	return out.TokenID, nil
}

func (c *RelayClient) Mint(ctx context.Context, tokenID string, metadata Metadata) (Receipt, error) {
	if strings.TrimSpace(tokenID) == "" {
		return Receipt{}, fmt.Errorf("%w: token id is required", ErrUpstream)
	}
	var out Receipt
	path := "/tokens/" + url.PathEscape(tokenID) + "/mint"
	if err := c.post(ctx, path, mintRequest{Metadata: metadata}, &out); err != nil {
		return Receipt{}, err
	}
	if out.SerialNumber == "" {
		return Receipt{}, fmt.Errorf("%w: relay returned empty serial", ErrUpstream)
	}
	if out.TokenID == "" {
		out.TokenID = tokenID
	}
	return out, nil
}

func (c *RelayClient) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: relay status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode relay response: %v", ErrUpstream, err)
	}
	return nil
}
