package ledger

import (
	"context"

	"github.com/joseph-ayodele/cv-intake/internal/entity"
)

// Table is the external append-only table that holds one row per accepted résumé.
// Implementations are not required to be safe for concurrent use; Writer serializes calls.
type Table interface {
	Append(ctx context.Context, row entity.LedgerRow) error
}

// TableFunc adapts a function to Table.
type TableFunc func(ctx context.Context, row entity.LedgerRow) error

func (f TableFunc) Append(ctx context.Context, row entity.LedgerRow) error {
	return f(ctx, row)
}
