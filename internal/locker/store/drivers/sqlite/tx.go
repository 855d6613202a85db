package sqlite

import (
	"database/sql"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/store"
)

type txStore struct {
	tx  *sql.Tx
	q   *queries
	now func() time.Time
}

func newTx(tx *sql.Tx, now func() time.Time) *txStore {
	return &txStore{
		tx:  tx,
		q:   newQueries(tx),
		now: now,
	}
}

func (t *txStore) Users() store.Users { return &usersRepo{q: t.q, now: t.now} }
func (t *txStore) Items() store.Items { return &itemsRepo{q: t.q, now: t.now} }
