package event

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const eventsCollection = "events"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository instantiates a Firestore-backed repository.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) doc(id string) *firestore.DocumentRef {
	return r.client.Collection(eventsCollection).Doc(id)
}

func (r *firestoreRepository) Create(ctx context.Context, e Event) error {
	_, err := r.doc(e.ID).Create(ctx, e)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (r *firestoreRepository) Get(ctx context.Context, id string) (Event, error) {
	doc, err := r.doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, err
	}
	return snapshotToEvent(doc)
}

func (r *firestoreRepository) List(ctx context.Context) ([]Event, error) {
	iter := r.client.Collection(eventsCollection).OrderBy("date", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var out []Event
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		e, err := snapshotToEvent(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *firestoreRepository) Reserve(ctx context.Context, id string, quantity int) (Event, error) {
	ref := r.doc(id)

	var before Event
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		e, err := snapshotToEvent(doc)
		if err != nil {
			return err
		}
		if !e.OnSale() {
			return ErrNotOnSale
		}
		if quantity > e.Remaining() {
			return ErrSoldOut
		}

		before = e
		return tx.Update(ref, []firestore.Update{
			{Path: "tickets_sold", Value: firestore.Increment(quantity)},
		})
	})
	if err != nil {
		return Event{}, err
	}
	return before, nil
}

func (r *firestoreRepository) IncrementTicketsSold(ctx context.Context, id string, delta int) error {
	_, err := r.doc(id).Update(ctx, []firestore.Update{
		{Path: "tickets_sold", Value: firestore.Increment(delta)},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (r *firestoreRepository) UpdateStatus(ctx context.Context, id string, st Status, at time.Time) error {
	_, err := r.doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(st)},
		{Path: "updated_at", Value: at},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func snapshotToEvent(doc *firestore.DocumentSnapshot) (Event, error) {
	var e Event
	if err := doc.DataTo(&e); err != nil {
		return Event{}, fmt.Errorf("decode event %s: %w", doc.Ref.ID, err)
	}
	e.ID = doc.Ref.ID
	if e.Status == "" {
		e.Status = StatusUpcoming
	}
	if e.Category == "" {
		e.Category = CategoryOther
	}
	return e, nil
}
