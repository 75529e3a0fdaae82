package memory

import "context"

// TxManager satisfies database.TxManager without transactional semantics;
// every in-memory mutation is already atomic under its repository's mutex.
type TxManager struct{}

func (TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
