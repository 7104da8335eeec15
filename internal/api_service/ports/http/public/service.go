package public

import (
	"context"

	"github.com/langowen/posratio/internal/entities"
)

type Service interface {
	SelectBest(ctx context.Context, criteria entities.Criteria) (entities.Selection, error)
}

type RefreshTrigger interface {
	Trigger(ctx context.Context, origin string) (entities.RefreshMessage, error)
}
