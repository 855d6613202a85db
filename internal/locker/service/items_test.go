package service_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
	"github.com/aussiebroadwan/locker/internal/locker/service"
	"github.com/stretchr/testify/require"
)

func TestOwnershipPolicy(t *testing.T) {
	bob := domain.User{ID: 1}
	carol := domain.User{ID: 2}
	it := domain.Item{ID: 10, OwnerID: 1}

	p := service.OwnershipPolicy{}
	require.True(t, p.CanAccess(bob, it))
	require.False(t, p.CanAccess(carol, it))
	require.ErrorIs(t, p.Deny(), service.ErrForbidden)

	p = service.OwnershipPolicy{Denial: service.DenyNotFound}
	require.ErrorIs(t, p.Deny(), service.ErrItemNotFound)
}

func TestParseDenialPolicy(t *testing.T) {
	for in, want := range map[string]service.DenialPolicy{
		"":          service.DenyForbidden,
		"forbidden": service.DenyForbidden,
		"not_found": service.DenyNotFound,
		"NOT_FOUND": service.DenyNotFound,
	} {
		got, err := service.ParseDenialPolicy(in)
		require.NoError(t, err)
		require.Equal(t, want, got, in)
	}

	_, err := service.ParseDenialPolicy("maybe")
	require.Error(t, err)
}

func TestItemService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "bob", "bob@example.com", "pw")
	f.register(t, "carol", "carol@example.com", "pw")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	desc := "ssh keys"
	notes, err := f.items.Create(ctx, bob, "  notes  ", &desc)
	require.NoError(t, err)
	require.Equal(t, "notes", notes.Title)
	require.Equal(t, bob.ID, notes.OwnerID)

	_, err = f.items.Create(ctx, carol, "carol's", nil)
	require.NoError(t, err)

	t.Run("list is scoped to owner", func(t *testing.T) {
		got, err := f.items.List(ctx, bob, service.Page{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, notes.ID, got[0].ID)
	})

	t.Run("owner can read", func(t *testing.T) {
		got, err := f.items.Get(ctx, bob, notes.ID)
		require.NoError(t, err)
		require.Equal(t, "ssh keys", *got.Description)
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		_, err := f.items.Get(ctx, carol, notes.ID)
		require.ErrorIs(t, err, service.ErrForbidden)
		require.ErrorIs(t, f.items.Delete(ctx, carol, notes.ID), service.ErrForbidden)

		_, err = f.items.Get(ctx, bob, notes.ID)
		require.NoError(t, err, "denied delete must not remove the item")
	})

	t.Run("missing item is not found before ownership", func(t *testing.T) {
		_, err := f.items.Get(ctx, carol, 9999)
		require.ErrorIs(t, err, service.ErrItemNotFound)
		require.ErrorIs(t, f.items.Delete(ctx, bob, 9999), service.ErrItemNotFound)
	})

	t.Run("owner can delete", func(t *testing.T) {
		require.NoError(t, f.items.Delete(ctx, bob, notes.ID))
		_, err := f.items.Get(ctx, bob, notes.ID)
		require.ErrorIs(t, err, service.ErrItemNotFound)
	})
}

func TestItemService_DeleteRunsInTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "bob", "bob@example.com", "pw")
	bob := f.user(t, "bob")

	it, err := f.items.Create(ctx, bob, "notes", nil)
	require.NoError(t, err)

	st := &abortingStore{Store: f.store}
	items := &service.ItemService{Store: st}

	require.ErrorIs(t, items.Delete(ctx, bob, it.ID), errTxAborted)
	require.Equal(t, 1, st.calls)

	_, err = f.items.Get(ctx, bob, it.ID)
	require.NoError(t, err, "rolled back delete must keep the item")
}

func TestItemService_NotFoundDenial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "bob", "bob@example.com", "pw")
	f.register(t, "carol", "carol@example.com", "pw")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	items := &service.ItemService{Store: f.store, Policy: service.OwnershipPolicy{Denial: service.DenyNotFound}}
	it, err := items.Create(ctx, bob, "secret", nil)
	require.NoError(t, err)

	_, foreign := items.Get(ctx, carol, it.ID)
	_, missing := items.Get(ctx, carol, it.ID+100)
	require.ErrorIs(t, foreign, service.ErrItemNotFound)
	require.Equal(t, missing, foreign, "foreign and missing items must look the same")
}

func TestItemService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "bob", "bob@example.com", "pw")
	bob := f.user(t, "bob")

	_, err := f.items.Create(ctx, bob, "   ", nil)
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.items.List(ctx, bob, service.Page{Skip: -1})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.items.List(ctx, bob, service.Page{Limit: -5})
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestItemService_Paging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "bob", "bob@example.com", "pw")
	bob := f.user(t, "bob")

	for range service.MaxPageLimit + 5 {
		_, err := f.items.Create(ctx, bob, "x", nil)
		require.NoError(t, err)
	}

	all, err := f.items.List(ctx, bob, service.Page{})
	require.NoError(t, err)
	require.Len(t, all, service.DefaultPageLimit)

	capped, err := f.items.List(ctx, bob, service.Page{Limit: 1000})
	require.NoError(t, err)
	require.Len(t, capped, service.MaxPageLimit)

	tail, err := f.items.List(ctx, bob, service.Page{Skip: service.MaxPageLimit, Limit: 10})
	require.NoError(t, err)
	require.Len(t, tail, 5)
}
