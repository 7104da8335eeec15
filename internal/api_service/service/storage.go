package service

import (
	"context"

	"github.com/langowen/posratio/internal/entities"
)

type RatioStore interface {
	GetAll(ctx context.Context) []entities.PosRatio
}

type Filter interface {
	Filter(ctx context.Context, ratios []entities.PosRatio, criteria entities.Criteria) []entities.PosRatio
}

type Selector interface {
	SelectBest(candidates []entities.PosRatio, amount float64) (*entities.Quote, error)
}
