package dashboard

import "context"

// Repository persists dashboard counters
type Repository interface {
	Load(ctx context.Context) (Counters, error)
	Save(ctx context.Context, c Counters) error
}
