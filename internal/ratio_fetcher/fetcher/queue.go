package fetcher

import (
	"context"

	"github.com/langowen/posratio/internal/entities"
)

type Queue interface {
	Consume(ctx context.Context) (entities.RefreshMessage, func(context.Context) error, error)
}
