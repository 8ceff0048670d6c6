package analysis

import "context"

// Repository port for persisting and querying analyses
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id ID) (*Analysis, error)
	Paginate(ctx context.Context, page, pageSize int) ([]*Analysis, error)
	Count(ctx context.Context) (int64, error)
}
