package account

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const usersCollection = "users"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Firestore-backed account repository.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Get(ctx context.Context, accountID string) (*Account, error) {
	doc, err := r.client.Collection(usersCollection).Doc(accountID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return defaultAccount(accountID), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeAccount(doc, accountID)
}

func (r *firestoreRepository) Update(ctx context.Context, accountID string, mutate func(*Account) error) (*Account, error) {
	docRef := r.client.Collection(usersCollection).Doc(accountID)

	var updated *Account
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		acct := defaultAccount(accountID)
		doc, err := tx.Get(docRef)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if acct, err = decodeAccount(doc, accountID); err != nil {
				return err
			}
		}

		if err := mutate(acct); err != nil {
			return err
		}
		if err := tx.Set(docRef, acct); err != nil {
			return err
		}
		updated = acct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func decodeAccount(doc *firestore.DocumentSnapshot, accountID string) (*Account, error) {
	var acct Account
	if err := doc.DataTo(&acct); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}
	acct.AccountID = accountID
	if acct.AttendeeLevel == "" {
		acct.AttendeeLevel = defaultAccount(accountID).AttendeeLevel
	}
	return &acct, nil
}
