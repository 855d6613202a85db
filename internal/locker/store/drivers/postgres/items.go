package postgres

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
	"github.com/aussiebroadwan/locker/internal/locker/store"
)

const itemColumns = `id, title, description, owner_id, created_at`

type itemsRepo struct {
	q querier
}

func (r *itemsRepo) ListItemsByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Item, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query items (owner=%d): %w", ownerID, err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}

func (r *itemsRepo) CreateItem(ctx context.Context, ni store.NewItem) (domain.Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx,
		`INSERT INTO items (title, description, owner_id)
		 VALUES ($1, $2, $3)
		 RETURNING `+itemColumns,
		ni.Title, ni.Description, ni.OwnerID,
	))
	if err != nil {
		return domain.Item{}, mapConstraint(err)
	}
	return it, nil
}

func (r *itemsRepo) GetItemByID(ctx context.Context, id int64) (domain.Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err != nil {
		return domain.Item{}, mapNotFound(err)
	}
	return it, nil
}

func (r *itemsRepo) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
