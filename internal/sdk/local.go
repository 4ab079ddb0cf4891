package sdk

import (
	"context"

	"github.com/solanafuns/ddmonitor/internal/ledger"
)

// LocalHost adapts an in-process ledger to Host. The embedded ledger also
// satisfies watch.Source.
type LocalHost struct {
	*ledger.Ledger
}

func (h LocalHost) SendTransaction(ctx context.Context, tx *ledger.Transaction) (ledger.Receipt, error) {
	return h.Submit(ctx, tx)
}

func (h LocalHost) MinimumBalance(_ context.Context, size int) (uint64, error) {
	return h.Ledger.MinimumBalance(size), nil
}
