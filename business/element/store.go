package element

import (
	"context"
	"errors"

	"adaptiveCreative/domain"
)

// ErrAlreadyApplied is returned by a Store write whose receipt is already
// stored. Nothing is written in that case.
var ErrAlreadyApplied = errors.New("outcome already applied to element")

// Store persists element posteriors. Writers go through CompareAndSwap so
// that concurrent outcomes for the same element never overwrite each other.
//
// Writes may carry a receipt. The receipt and the element row commit
// together, or neither does.
type Store interface {
	// GetElement returns nil, nil when the element was never observed.
	GetElement(ctx context.Context, brandID string, key domain.ElementKey) (*domain.CreativeElement, error)
	// InsertElement reports false when the row already exists.
	InsertElement(ctx context.Context, el *domain.CreativeElement, receipt *domain.OutcomeReceipt) (bool, error)
	// CompareAndSwap writes el only if the stored version still equals expectedVersion.
	CompareAndSwap(ctx context.Context, el *domain.CreativeElement, expectedVersion int64, receipt *domain.OutcomeReceipt) (bool, error)
	ListElements(ctx context.Context, brandID string) ([]domain.CreativeElement, error)
}
