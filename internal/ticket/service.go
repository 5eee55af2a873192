package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ticketnest/ticketnest/internal/account"
	"github.com/ticketnest/ticketnest/internal/event"
	"github.com/ticketnest/ticketnest/internal/metrics"
	"github.com/ticketnest/ticketnest/internal/minting"
	"github.com/ticketnest/ticketnest/internal/qrcode"
)

const (
	mintConcurrency = 4
	releaseTimeout  = 5 * time.Second
)

// Service runs the ticket purchase flow and ticket lookups.
type Service struct {
	tickets  Repository
	events   event.Repository
	accounts account.Service
	minter   minting.Minter
	clock    event.Clock
	ids      event.IDGenerator
	logger   *slog.Logger
	qr       QRStore
	metrics  *metrics.Metrics
}

// Option customizes a Service.
type Option func(*Service)

// WithQRStore uploads QR images instead of keeping them inline.
func WithQRStore(store QRStore) Option {
	return func(s *Service) { s.qr = store }
}

// WithMetrics records purchase counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(tickets Repository, events event.Repository, accounts account.Service, minter minting.Minter, clock event.Clock, ids event.IDGenerator, logger *slog.Logger, opts ...Option) (*Service, error) {
	switch {
	case tickets == nil:
		return nil, errors.New("ticket repo is required")
	case events == nil:
		return nil, errors.New("event repo is required")
	case accounts == nil:
		return nil, errors.New("account service is required")
	case minter == nil:
		return nil, errors.New("minter is required")
	case clock == nil:
		return nil, errors.New("clock is required")
	case ids == nil:
		return nil, errors.New("id generator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		tickets:  tickets,
		events:   events,
		accounts: accounts,
		minter:   minter,
		clock:    clock,
		ids:      ids,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Purchase reserves seats, mints one token per seat and stores the tickets.
// A mint the upstream refuses is replaced by a placeholder serial. Seats whose
// ticket was never stored are released before an error is returned.
func (s *Service) Purchase(ctx context.Context, in PurchaseInput) (*PurchaseResult, error) {
	in.EventID = strings.TrimSpace(in.EventID)
	in.WalletAddress = strings.TrimSpace(in.WalletAddress)
	in.UserID = strings.TrimSpace(in.UserID)
	if err := in.validate(); err != nil {
		return nil, err
	}

	ev, err := s.events.Reserve(ctx, in.EventID, in.Quantity)
	if err != nil {
		if errors.Is(err, event.ErrSoldOut) {
			s.metrics.SoldOut()
		}
		return nil, err
	}

	issued := make([]Ticket, in.Quantity)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mintConcurrency)
	for i := 0; i < in.Quantity; i++ {
		g.Go(func() error {
			t, err := s.issue(gctx, ev, in, i)
			if err != nil {
				return fmt.Errorf("ticket %d: %w", i+1, err)
			}
			issued[i] = t
			return nil
		})
	}
	waitErr := g.Wait()

	stored := make([]Ticket, 0, len(issued))
	for _, t := range issued {
		if t.ID != "" {
			stored = append(stored, t)
		}
	}
	s.metrics.TicketsMinted(len(stored))

	if waitErr != nil {
		s.release(ctx, ev.ID, in.Quantity-len(stored))
		if len(stored) > 0 {
			s.recordPurchase(ctx, ev, in, len(stored))
		}
		return nil, waitErr
	}

	result := &PurchaseResult{
		Tickets:         make([]MintedTicket, 0, len(stored)),
		TransactionHash: "0x" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		NewBadges:       s.recordPurchase(ctx, ev, in, len(stored)),
	}
	for _, t := range stored {
		result.Tickets = append(result.Tickets, MintedTicket{
			TicketID:     t.ID,
			TokenID:      t.TokenID,
			SerialNumber: t.SerialNumber,
			QRCode:       t.QRCode,
		})
	}
	return result, nil
}

func (in PurchaseInput) validate() error {
	var problems []string
	if in.EventID == "" {
		problems = append(problems, "eventId is required")
	}
	if in.WalletAddress == "" {
		problems = append(problems, "walletAddress is required")
	}
	if in.Quantity < 1 || in.Quantity > MaxQuantity {
		problems = append(problems, fmt.Sprintf("quantity must be between 1 and %d", MaxQuantity))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func (s *Service) issue(ctx context.Context, ev event.Event, in PurchaseInput, i int) (Ticket, error) {
	now := s.clock.Now().UTC()
	meta := minting.Metadata{
		EventID:      ev.ID,
		EventName:    ev.Name,
		EventDate:    ev.Date,
		Location:     ev.Location,
		Owner:        in.WalletAddress,
		TicketNumber: ev.TicketsSold + i + 1,
		MintedAt:     now,
	}

	receipt, err := s.minter.Mint(ctx, ev.TokenID, meta)
	placeholder := false
	if err != nil {
		if ctx.Err() != nil {
			return Ticket{}, ctx.Err()
		}
		receipt = minting.Receipt{TokenID: ev.TokenID, SerialNumber: fmt.Sprintf("%d-%d", now.UnixMilli(), i)}
		placeholder = true
		s.metrics.MintFallback()
		s.logger.Warn("mint failed; issuing placeholder serial",
			slog.String("eventId", ev.ID),
			slog.Int("ticketNumber", meta.TicketNumber),
			slog.String("serial", receipt.SerialNumber),
			slog.Any("error", err),
		)
	}

	img, err := qrcode.Generate(qrcode.Payload{
		TicketID: qrcode.TicketID(receipt.TokenID, receipt.SerialNumber),
		EventID:  ev.ID,
		Owner:    in.WalletAddress,
	})
	if err != nil {
		return Ticket{}, err
	}

	owner := in.UserID
	if owner == "" {
		owner = anonymousOwner
	}
	t := Ticket{
		ID:              s.ids.NewID(),
		EventID:         ev.ID,
		EventName:       ev.Name,
		EventDate:       ev.Date,
		EventLocation:   ev.Location,
		EventImageURL:   ev.ImageURL,
		OwnerID:         owner,
		OwnerWallet:     in.WalletAddress,
		TokenID:         receipt.TokenID,
		SerialNumber:    receipt.SerialNumber,
		PlaceholderMint: placeholder,
		QRCode:          img.DataURI,
		Status:          StatusActive,
		PurchaseDate:    now,
		Metadata:        meta,
	}

	if s.qr != nil {
		path, url, err := s.qr.UploadTicketQR(ctx, ev.ID, t.ID, img.PNG)
		if err != nil {
			s.logger.Warn("qr upload failed; keeping inline image",
				slog.String("ticketId", t.ID),
				slog.Any("error", err),
			)
		} else {
			t.QRCode = url
			t.QRObject = path
		}
	}

	if err := s.tickets.Create(ctx, t); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

func (s *Service) release(ctx context.Context, eventID string, seats int) {
	if seats <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := s.events.IncrementTicketsSold(ctx, eventID, -seats); err != nil {
		s.logger.Error("failed to release reserved seats",
			slog.String("eventId", eventID),
			slog.Int("seats", seats),
			slog.Any("error", err),
		)
	}
}

// recordPurchase updates the owner's stats and returns the ids of new
// badges. Failures are logged and do not fail the purchase.
func (s *Service) recordPurchase(ctx context.Context, ev event.Event, in PurchaseInput, quantity int) []string {
	accountID := in.UserID
	if accountID == "" {
		accountID = in.WalletAddress
	}

	res, err := s.accounts.RecordPurchase(context.WithoutCancel(ctx), account.PurchaseInput{
		AccountID:     accountID,
		EventID:       ev.ID,
		Quantity:      quantity,
		WalletAddress: in.WalletAddress,
		Spent:         ev.Price * float64(quantity),
	})
	if err != nil {
		s.logger.Error("failed to update account stats",
			slog.String("accountId", accountID),
			slog.String("eventId", ev.ID),
			slog.Any("error", err),
		)
		return []string{}
	}

	ids := make([]string, 0, len(res.NewBadges))
	for _, b := range res.NewBadges {
		ids = append(ids, b.ID)
		s.metrics.BadgeAwarded(b.ID)
	}
	return ids
}

// List returns an owner's tickets, newest first, and the same tickets grouped
// by event in first-seen order.
func (s *Service) List(ctx context.Context, in ListInput) (*ListResult, error) {
	in.WalletAddress = strings.TrimSpace(in.WalletAddress)
	in.UserID = strings.TrimSpace(in.UserID)
	in.EventID = strings.TrimSpace(in.EventID)
	if in.WalletAddress == "" && in.UserID == "" {
		return nil, fmt.Errorf("%w: walletAddress or userId is required", ErrInvalidInput)
	}

	tickets, err := s.tickets.List(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.refreshQRLinks(ctx, tickets); err != nil {
		return nil, err
	}

	return &ListResult{
		Tickets:        tickets,
		TicketsByEvent: groupByEvent(tickets),
		TotalTickets:   len(tickets),
	}, nil
}

func (s *Service) refreshQRLinks(ctx context.Context, tickets []Ticket) error {
	if s.qr == nil {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(mintConcurrency)
	for i := range tickets {
		if tickets[i].QRObject == "" {
			continue
		}
		g.Go(func() error {
			url, err := s.qr.SignedURL(ctx, tickets[i].QRObject)
			if err != nil {
				return fmt.Errorf("sign qr for ticket %s: %w", tickets[i].ID, err)
			}
			tickets[i].QRCode = url
			return nil
		})
	}
	return g.Wait()
}

func groupByEvent(tickets []Ticket) []EventGroup {
	groups := make([]EventGroup, 0)
	index := make(map[string]int)
	for _, t := range tickets {
		i, ok := index[t.EventID]
		if !ok {
			i = len(groups)
			index[t.EventID] = i
			groups = append(groups, EventGroup{
				EventID:       t.EventID,
				EventName:     t.EventName,
				EventDate:     t.EventDate,
				EventLocation: t.EventLocation,
				EventImageURL: t.EventImageURL,
			})
		}
		groups[i].Tickets = append(groups[i].Tickets, t)
	}
	return groups
}
