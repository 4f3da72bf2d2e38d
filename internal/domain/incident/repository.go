package incident

import (
	"context"
	"time"
)

// Repository defines the incident record repository interface
type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Record, int64, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
