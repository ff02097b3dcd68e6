package memory

import (
	"context"
	"fmt"
)

type contextKey string

const transactionKey contextKey = "memoryStoreTrx"

func withTransactionID(ctx context.Context, trxID string) context.Context {
	return context.WithValue(ctx, transactionKey, trxID)
}

// transactionFromContext must be called with db.mu held.
func (db *DB) transactionFromContext(ctx context.Context) (*transaction, error) {
	trxID, ok := ctx.Value(transactionKey).(string)
	if !ok || trxID == "" {
		return nil, ErrTransactionIDNotFoundInCtx
	}

	trx, exists := db.transactions[trxID]
	if !exists {
		return nil, fmt.Errorf("transaction %s not found: %w", trxID, ErrTransactionNotFound)
	}

	return trx, nil
}
