package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ticketnest/ticketnest/internal/account"
	"github.com/ticketnest/ticketnest/internal/badge"
	"github.com/ticketnest/ticketnest/internal/event"
	"github.com/ticketnest/ticketnest/internal/metrics"
	"github.com/ticketnest/ticketnest/internal/minting"
	"github.com/ticketnest/ticketnest/pkg/logging"
)

var testNow = time.Date(2025, 7, 4, 19, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("tkt-%03d", s.n)
}

type fakeMinter struct {
	mintFn func(context.Context, string, minting.Metadata) (minting.Receipt, error)
	serial atomic.Int64
}

func (f *fakeMinter) CreateCollection(context.Context, string, int) (string, error) {
	return "0.0.1", nil
}

func (f *fakeMinter) Mint(ctx context.Context, tokenID string, md minting.Metadata) (minting.Receipt, error) {
	if f.mintFn != nil {
		return f.mintFn(ctx, tokenID, md)
	}
	return minting.Receipt{TokenID: tokenID, SerialNumber: fmt.Sprint(f.serial.Add(1))}, nil
}

type fakeRepo struct {
	Repository
	createFn func(context.Context, Ticket) error
}

func (f *fakeRepo) Create(ctx context.Context, t Ticket) error {
	if f.createFn != nil {
		return f.createFn(ctx, t)
	}
	return f.Repository.Create(ctx, t)
}

type fakeAccounts struct {
	account.Service
	recordFn func(context.Context, account.PurchaseInput) (*account.PurchaseResult, error)
}

func (f *fakeAccounts) RecordPurchase(ctx context.Context, in account.PurchaseInput) (*account.PurchaseResult, error) {
	return f.recordFn(ctx, in)
}

type fakeQRStore struct {
	mu       sync.Mutex
	uploads  map[string][]byte
	uploadFn func() error
	signs    atomic.Int32
}

func (f *fakeQRStore) UploadTicketQR(_ context.Context, eventID, ticketID string, png []byte) (string, string, error) {
	if f.uploadFn != nil {
		if err := f.uploadFn(); err != nil {
			return "", "", err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	path := "qrcodes/" + eventID + "/" + ticketID + ".png"
	f.uploads[path] = png
	return path, "https://signed.example/" + path + "?v=0", nil
}

func (f *fakeQRStore) SignedURL(_ context.Context, objectPath string) (string, error) {
	n := f.signs.Add(1)
	return fmt.Sprintf("https://signed.example/%s?v=%d", objectPath, n), nil
}

type harness struct {
	svc      *Service
	tickets  Repository
	events   event.Repository
	accounts account.Repository
	minter   *fakeMinter
	metrics  *metrics.Metrics
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		tickets:  NewMemoryRepository(),
		events:   event.NewMemoryRepository(),
		accounts: account.NewMemoryRepository(),
		minter:   &fakeMinter{},
		metrics:  metrics.New(),
	}
	accountSvc := account.NewService(h.accounts, fixedClock{t: testNow})
	opts = append([]Option{WithMetrics(h.metrics)}, opts...)
	svc, err := NewService(h.tickets, h.events, accountSvc, h.minter, fixedClock{t: testNow}, &seqIDs{}, logging.Discard(), opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	h.svc = svc

	if err := h.events.Create(context.Background(), event.Event{
		ID:           "evt-1",
		Name:         "Launch Night",
		Date:         testNow.Add(48 * time.Hour),
		Location:     "Nairobi",
		Price:        20,
		TotalTickets: 10,
		TicketsSold:  4,
		ImageURL:     "https://img.example/launch.png",
		Status:       event.StatusUpcoming,
		TokenID:      "0.0.4821",
	}); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return h
}

func TestPurchaseHappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.svc.Purchase(ctx, PurchaseInput{EventID: "evt-1", Quantity: 3, WalletAddress: "0.0.1234", UserID: "user-1"})
	if err != nil {
		t.Fatalf("Purchase returned error: %v", err)
	}
	if len(res.Tickets) != 3 {
		t.Fatalf("expected 3 tickets, got %d", len(res.Tickets))
	}
	if !strings.HasPrefix(res.TransactionHash, "0x") || len(res.TransactionHash) != 34 {
		t.Fatalf("unexpected transaction hash %q", res.TransactionHash)
	}
	if strings.Join(res.NewBadges, ",") != "first_ticket,bronze_collector" {
		t.Fatalf("unexpected badges %v", res.NewBadges)
	}

	ev, _ := h.events.Get(ctx, "evt-1")
	if ev.TicketsSold != 7 {
		t.Fatalf("expected 7 sold, got %d", ev.TicketsSold)
	}

	listed, err := h.svc.List(ctx, ListInput{UserID: "user-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	numbers := map[int]bool{}
	for _, tk := range listed.Tickets {
		numbers[tk.Metadata.TicketNumber] = true
		if tk.OwnerWallet != "0.0.1234" || tk.Status != StatusActive || tk.PlaceholderMint {
			t.Fatalf("unexpected ticket %+v", tk)
		}
		if !strings.HasPrefix(tk.QRCode, "data:image/png;base64,") {
			t.Fatalf("expected inline qr, got %.30s", tk.QRCode)
		}
	}
	for _, n := range []int{5, 6, 7} {
		if !numbers[n] {
			t.Fatalf("expected ticket numbers 5..7, got %v", numbers)
		}
	}

	acct, _ := h.accounts.Get(ctx, "user-1")
	if acct.TicketsPurchased != 3 || acct.EventsAttended != 1 || acct.TotalSpent != 60 {
		t.Fatalf("unexpected account %+v", acct)
	}
	if acct.AttendeeLevel != badge.LevelBronze {
		t.Fatalf("expected Bronze, got %s", acct.AttendeeLevel)
	}
}

func TestPurchaseWithoutUserIDKeysStatsByWallet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.Purchase(ctx, PurchaseInput{EventID: "evt-1", Quantity: 1, WalletAddress: "0.0.99"}); err != nil {
		t.Fatalf("Purchase: %v", err)
	}

	acct, _ := h.accounts.Get(ctx, "0.0.99")
	if acct.TicketsPurchased != 1 {
		t.Fatalf("expected wallet-keyed stats, got %+v", acct)
	}
	listed, _ := h.svc.List(ctx, ListInput{WalletAddress: "0.0.99"})
	if listed.TotalTickets != 1 || listed.Tickets[0].OwnerID != anonymousOwner {
		t.Fatalf("unexpected listing %+v", listed)
	}
}

func TestPurchaseValidation(t *testing.T) {
	h := newHarness(t)
	cases := []PurchaseInput{
		{EventID: "", Quantity: 1, WalletAddress: "w"},
		{EventID: "evt-1", Quantity: 1, WalletAddress: " "},
		{EventID: "evt-1", Quantity: 0, WalletAddress: "w"},
		{EventID: "evt-1", Quantity: MaxQuantity + 1, WalletAddress: "w"},
	}
	for i, in := range cases {
		if _, err := h.svc.Purchase(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestPurchaseSoldOut(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Purchase(context.Background(), PurchaseInput{EventID: "evt-1", Quantity: 7, WalletAddress: "w"})
	if !errors.Is(err, event.ErrSoldOut) {
		t.Fatalf("expected ErrSoldOut, got %v", err)
	}
	ev, _ := h.events.Get(context.Background(), "evt-1")
	if ev.TicketsSold != 4 {
		t.Fatalf("expected no seats claimed, got %d", ev.TicketsSold)
	}
}

func TestPurchaseUnknownEvent(t *testing.T) {
	h := newHarness(t)
	if _, err := h.svc.Purchase(context.Background(), PurchaseInput{EventID: "nope", Quantity: 1, WalletAddress: "w"}); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("expected event.ErrNotFound, got %v", err)
	}
}

func TestPurchaseMintFailureFallsBack(t *testing.T) {
	h := newHarness(t)
	h.minter.mintFn = func(context.Context, string, minting.Metadata) (minting.Receipt, error) {
		return minting.Receipt{}, minting.ErrUpstream
	}

	res, err := h.svc.Purchase(context.Background(), PurchaseInput{EventID: "evt-1", Quantity: 2, WalletAddress: "0.0.5", UserID: "u"})
	if err != nil {
		t.Fatalf("Purchase returned error: %v", err)
	}
	wantPrefix := fmt.Sprintf("%d-", testNow.UnixMilli())
	serials := map[string]bool{}
	for _, tk := range res.Tickets {
		if tk.TokenID != "0.0.4821" || !strings.HasPrefix(tk.SerialNumber, wantPrefix) {
			t.Fatalf("unexpected placeholder %+v", tk)
		}
		serials[tk.SerialNumber] = true
	}
	if len(serials) != 2 {
		t.Fatalf("expected distinct placeholder serials, got %v", serials)
	}

	listed, _ := h.svc.List(context.Background(), ListInput{UserID: "u"})
	for _, tk := range listed.Tickets {
		if !tk.PlaceholderMint {
			t.Fatalf("expected placeholder flag on %s", tk.ID)
		}
	}
}

func TestPurchaseStoreFailureReleasesSeats(t *testing.T) {
	h := newHarness(t)
	var calls atomic.Int32
	h.svc.tickets = &fakeRepo{
		Repository: h.tickets,
		createFn: func(ctx context.Context, tk Ticket) error {
			if calls.Add(1) == 1 {
				return h.tickets.Create(ctx, tk)
			}
			return errors.New("firestore unavailable")
		},
	}

	_, err := h.svc.Purchase(context.Background(), PurchaseInput{EventID: "evt-1", Quantity: 1, WalletAddress: "w", UserID: "u"})
	if err != nil {
		t.Fatalf("first purchase should succeed: %v", err)
	}

	_, err = h.svc.Purchase(context.Background(), PurchaseInput{EventID: "evt-1", Quantity: 3, WalletAddress: "w", UserID: "u"})
	if err == nil {
		t.Fatal("expected error")
	}

	ev, _ := h.events.Get(context.Background(), "evt-1")
	if ev.TicketsSold != 5 {
		t.Fatalf("expected unstored seats released (5 sold), got %d", ev.TicketsSold)
	}
	acct, _ := h.accounts.Get(context.Background(), "u")
	if acct.TicketsPurchased != 1 {
		t.Fatalf("expected stats for stored tickets only, got %d", acct.TicketsPurchased)
	}
}

func TestPurchaseAccountFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.svc.accounts = &fakeAccounts{recordFn: func(context.Context, account.PurchaseInput) (*account.PurchaseResult, error) {
		return nil, errors.New("firestore unavailable")
	}}

	res, err := h.svc.Purchase(context.Background(), PurchaseInput{EventID: "evt-1", Quantity: 1, WalletAddress: "w", UserID: "u"})
	if err != nil {
		t.Fatalf("Purchase returned error: %v", err)
	}
	if res.NewBadges == nil || len(res.NewBadges) != 0 {
		t.Fatalf("expected empty badge list, got %#v", res.NewBadges)
	}
}

func TestPurchaseQRPayload(t *testing.T) {
	h := newHarness(t)
	qr := &fakeQRStore{}
	h.svc.qr = qr

	res, err := h.svc.Purchase(context.Background(), PurchaseInput{EventID: "evt-1", Quantity: 1, WalletAddress: "0.0.7", UserID: "u"})
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	tk := res.Tickets[0]
	if !strings.HasPrefix(tk.QRCode, "https://signed.example/qrcodes/evt-1/") {
		t.Fatalf("expected uploaded qr url, got %s", tk.QRCode)
	}
	if len(qr.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(qr.uploads))
	}

	listed, _ := h.svc.List(context.Background(), ListInput{UserID: "u"})
	if !strings.HasSuffix(listed.Tickets[0].QRCode, "?v=1") {
		t.Fatalf("expected re-signed url, got %s", listed.Tickets[0].QRCode)
	}
}

func TestPurchaseQRUploadFailureKeepsInlineImage(t *testing.T) {
	h := newHarness(t, WithQRStore(&fakeQRStore{uploadFn: func() error { return errors.New("bucket missing") }}))

	res, err := h.svc.Purchase(context.Background(), PurchaseInput{EventID: "evt-1", Quantity: 1, WalletAddress: "w"})
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if !strings.HasPrefix(res.Tickets[0].QRCode, "data:image/png;base64,") {
		t.Fatalf("expected inline qr, got %.30s", res.Tickets[0].QRCode)
	}
}

func TestListGroupsByEvent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seed := []Ticket{
		{ID: "a", EventID: "e1", EventName: "One", OwnerWallet: "w", PurchaseDate: testNow.Add(-3 * time.Hour)},
		{ID: "b", EventID: "e2", EventName: "Two", OwnerWallet: "w", PurchaseDate: testNow.Add(-2 * time.Hour)},
		{ID: "c", EventID: "e1", EventName: "One", OwnerWallet: "w", PurchaseDate: testNow.Add(-1 * time.Hour)},
		{ID: "d", EventID: "e1", EventName: "One", OwnerWallet: "other", PurchaseDate: testNow},
	}
	for _, tk := range seed {
		if err := h.tickets.Create(ctx, tk); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	res, err := h.svc.List(ctx, ListInput{WalletAddress: "w", UserID: "ignored"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.TotalTickets != 3 || res.Tickets[0].ID != "c" || res.Tickets[2].ID != "a" {
		t.Fatalf("unexpected order: %+v", res.Tickets)
	}
	if len(res.TicketsByEvent) != 2 || res.TicketsByEvent[0].EventID != "e1" || len(res.TicketsByEvent[0].Tickets) != 2 {
		t.Fatalf("unexpected grouping: %+v", res.TicketsByEvent)
	}

	filtered, _ := h.svc.List(ctx, ListInput{WalletAddress: "w", EventID: "e2"})
	if filtered.TotalTickets != 1 || filtered.Tickets[0].ID != "b" {
		t.Fatalf("unexpected event filter result: %+v", filtered.Tickets)
	}
}

func TestListRequiresOwner(t *testing.T) {
	h := newHarness(t)
	if _, err := h.svc.List(context.Background(), ListInput{EventID: "e1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTicketJSONHidesObjectPath(t *testing.T) {
	raw, err := json.Marshal(Ticket{ID: "t", QRObject: "qrcodes/e/t.png"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "qrcodes/") {
		t.Fatalf("object path leaked: %s", raw)
	}
}
