package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
	"github.com/aussiebroadwan/locker/internal/locker/store"
	"github.com/aussiebroadwan/locker/pkg/slogx"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 100
	MaxTitleLength   = 200
)

// Page is an offset window over a user's items.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) normalize() (Page, error) {
	if p.Skip < 0 {
		return p, &InputError{Field: "skip", Reason: "must not be negative"}
	}
	switch {
	case p.Limit < 0:
		return p, &InputError{Field: "limit", Reason: "must not be negative"}
	case p.Limit == 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	return p, nil
}

// ItemService applies OwnershipPolicy to every item operation.
type ItemService struct {
	Store  store.Store
	Policy OwnershipPolicy
}

// List returns only u's items. The filter runs in the store so other users'
// rows are never loaded.
func (s *ItemService) List(ctx context.Context, u domain.User, page Page) ([]domain.Item, error) {
	page, err := page.normalize()
	if err != nil {
		return nil, err
	}
	return s.Store.Items().ListItemsByOwner(ctx, u.ID, page.Skip, page.Limit)
}

func (s *ItemService) Create(ctx context.Context, u domain.User, title string, description *string) (domain.Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Item{}, &InputError{Field: "title", Reason: "required"}
	}
	if len(title) > MaxTitleLength {
		return domain.Item{}, &InputError{Field: "title", Reason: "too long"}
	}

	it, err := s.Store.Items().CreateItem(ctx, store.NewItem{
		Title:       title,
		Description: description,
		OwnerID:     u.ID,
	})
	if err != nil {
		return domain.Item{}, err
	}

	slogx.FromContext(ctx).Info("item created", slog.Int64("item_id", it.ID), slog.Int64("owner_id", u.ID))
	return it, nil
}

// Get checks existence before ownership.
func (s *ItemService) Get(ctx context.Context, u domain.User, id int64) (domain.Item, error) {
	return s.owned(ctx, s.Store.Items(), u, id)
}

// Delete checks existence before ownership. The lookup, the check and the
// delete share one transaction.
func (s *ItemService) Delete(ctx context.Context, u domain.User, id int64) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		it, err := s.owned(ctx, tx.Items(), u, id)
		if err != nil {
			return err
		}
		if err := tx.Items().DeleteItem(ctx, it.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("item deleted", slog.Int64("item_id", id), slog.Int64("owner_id", u.ID))
	return nil
}

func (s *ItemService) owned(ctx context.Context, items store.Items, u domain.User, id int64) (domain.Item, error) {
	it, err := items.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Item{}, ErrItemNotFound
		}
		return domain.Item{}, err
	}
	if !s.Policy.CanAccess(u, it) {
		s.logDenied(ctx, u, it)
		return domain.Item{}, s.Policy.Deny()
	}
	return it, nil
}

func (s *ItemService) logDenied(ctx context.Context, u domain.User, it domain.Item) {
	slogx.FromContext(ctx).Info("item access denied",
		slog.Int64("item_id", it.ID),
		slog.Int64("user_id", u.ID),
	)
}
