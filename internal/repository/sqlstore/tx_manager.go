package sqlstore

import (
	"context"

	"github.com/worldcities/worldcities-api/internal/repository"
)

type txManager struct{ db DB }

func NewTxManager(db DB) repository.TxManager { return &txManager{db: db} }

func (m *txManager) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if err := ensureDB(m.db); err != nil {
		return err
	}
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return repository.MapError(err)
	}
	committed := false
	defer func() {
		// Rollback on any exit path before Commit; a canceled ctx must not skip it.
		if !committed {
			_ = tx.Rollback(context.Background())
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		return repository.MapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return repository.MapError(err)
	}
	committed = true
	return nil
}

type pinger struct{ db DB }

// NewPinger adapts a DB to the repository.Pinger interface.
func NewPinger(db DB) repository.Pinger { return &pinger{db: db} }

func (p *pinger) Ping(ctx context.Context) error {
	if err := ensureDB(p.db); err != nil {
		return err
	}
	return p.db.Ping(ctx)
}

var (
	_ repository.TxManager = (*txManager)(nil)
	_ repository.Pinger    = (*pinger)(nil)
)
