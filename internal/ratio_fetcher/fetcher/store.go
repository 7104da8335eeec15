package fetcher

import "context"

type Refresher interface {
	Refresh(ctx context.Context) bool
}
