package bootstrap

import (
	"context"

	"notevault/internal/entity"
	"notevault/internal/storeerr"
)

// unavailableTarget stands in for the transactional store on platforms
// without one, so migration starts fail with the proper error instead of a
// nil dereference.
type unavailableTarget struct{}

func (unavailableTarget) Available(ctx context.Context) error {
	return storeerr.ErrBackendUnavailable
}

func (unavailableTarget) Init(ctx context.Context) error {
	return storeerr.ErrBackendUnavailable
}

func (unavailableTarget) BulkReplace(ctx context.Context, notes []*entity.Note) error {
	return storeerr.ErrBackendUnavailable
}
