package ticket

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ticketsCollection = "tickets"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository instantiates a Firestore-backed repository.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Create(ctx context.Context, t Ticket) error {
	_, err := r.client.Collection(ticketsCollection).Doc(t.ID).Create(ctx, t)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (r *firestoreRepository) List(ctx context.Context, filter ListInput) ([]Ticket, error) {
	query := r.client.Collection(ticketsCollection).Query
	if filter.WalletAddress != "" {
		query = query.Where("owner_wallet", "==", filter.WalletAddress)
	} else {
		query = query.Where("owner_id", "==", filter.UserID)
	}
	if filter.EventID != "" {
		query = query.Where("event_id", "==", filter.EventID)
	}

	iter := query.OrderBy("purchase_date", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	out := make([]Ticket, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var t Ticket
		if err := doc.DataTo(&t); err != nil {
			return nil, fmt.Errorf("decode ticket %s: %w", doc.Ref.ID, err)
		}
		t.ID = doc.Ref.ID
		out = append(out, t)
	}
	return out, nil
}
