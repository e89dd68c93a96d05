package store

import "context"

// Store serializes access to the shared document. Update runs fn inside an
// exclusive load-mutate-save cycle and persists only if fn returns nil; View
// runs fn against a read-only snapshot. Two concurrent Updates never
// interleave, so a later writer always observes the earlier writer's
// mutation.
type Store interface {
	View(ctx context.Context, fn func(doc *Document) error) error
	Update(ctx context.Context, fn func(doc *Document) error) error
}
