package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
	"github.com/aussiebroadwan/locker/internal/locker/store"
)

type itemsRepo struct {
	q   *queries
	now func() time.Time
}

func (r *itemsRepo) ListItemsByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Item, error) {
	rows, err := r.q.listItemsByOwner(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapItem(row))
	}
	return items, nil
}

func (r *itemsRepo) CreateItem(ctx context.Context, it store.NewItem) (domain.Item, error) {
	now := r.now()
	id, err := r.q.createItem(ctx, createItemParams{
		Title:       it.Title,
		Description: mapOptionalString(it.Description),
		OwnerID:     it.OwnerID,
		Now:         now,
	})
	if err != nil {
		return domain.Item{}, mapConstraint(err)
	}

	return domain.Item{
		ID:          id,
		Title:       it.Title,
		Description: it.Description,
		OwnerID:     it.OwnerID,
		CreatedAt:   now,
	}, nil
}

func (r *itemsRepo) GetItemByID(ctx context.Context, id int64) (domain.Item, error) {
	row, err := r.q.getItemByID(ctx, id)
	if err != nil {
		return domain.Item{}, mapNotFound(err)
	}
	return mapItem(row), nil
}

func (r *itemsRepo) DeleteItem(ctx context.Context, id int64) error {
	n, err := r.q.deleteItem(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
