package tokens

import (
	"context"
	"time"

	"interview-backend/internal/store"
)

// Registry issues and redeems single-use admission codes backed by the
// shared document store.
type Registry struct {
	Store store.Store
}

// NewRegistry constructs a Registry.
func NewRegistry(st store.Store) *Registry {
	return &Registry{Store: st}
}

// Issue inserts a token record for code. Issuing an already-known code is
// idempotent and returns the existing record unchanged.
func (r *Registry) Issue(ctx context.Context, code Code, expiresAt *time.Time) (store.TokenRecord, error) {
	var out store.TokenRecord
	err := r.Store.Update(ctx, func(doc *store.Document) error {
		if existing := doc.FindToken(code.String()); existing != nil {
			out = *existing
			return nil
		}
		rec := store.TokenRecord{
			Token:     code.String(),
			Used:      false,
			ExpiresAt: expiresAt,
			CreatedAt: time.Now().UTC(),
		}
		doc.Tokens = append(doc.Tokens, rec)
		out = rec
		return nil
	})
	if err != nil {
		return store.TokenRecord{}, err
	}
	return out, nil
}

// Redeem flips an unused, unexpired token to used and returns it. The
// check-and-flip runs inside a single store transaction, so of two
// concurrent redemptions exactly one succeeds; the other observes used=true
// and fails with ErrAlreadyUsed.
func (r *Registry) Redeem(ctx context.Context, code Code) (store.TokenRecord, error) {
	var out store.TokenRecord
	err := r.Store.Update(ctx, func(doc *store.Document) error {
		rec := doc.FindToken(code.String())
		if rec == nil {
			return ErrNotFound
		}
		if rec.Used {
			return ErrAlreadyUsed
		}
		if rec.ExpiresAt != nil && rec.ExpiresAt.Before(time.Now()) {
			return ErrExpired
		}
		now := time.Now().UTC()
		rec.Used = true
		rec.UsedAt = &now
		out = *rec
		return nil
	})
	if err != nil {
		return store.TokenRecord{}, err
	}
	return out, nil
}
