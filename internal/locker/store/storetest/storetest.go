// Package storetest holds a driver-agnostic conformance suite for store.Store
// implementations.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/aussiebroadwan/locker/internal/locker/store"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, migrated, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

// Run exercises every store operation the services depend on.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("user uniqueness", func(t *testing.T) { testUserUniqueness(t, newStore(t)) })
	t.Run("items", func(t *testing.T) { testItems(t, newStore(t)) })
	t.Run("items paging", func(t *testing.T) { testItemsPaging(t, newStore(t)) })
	t.Run("tx rollback", func(t *testing.T) { testTxRollback(t, newStore(t)) })
	t.Run("ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(context.Background()))
	})
}

func mustUser(t *testing.T, s store.Store, username, email string) int64 {
	t.Helper()
	u, err := s.Users().CreateUser(context.Background(), store.NewUser{
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$stub",
		AvatarURL:    "https://example.com/" + username,
	})
	require.NoError(t, err)
	return u.ID
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.Users().CreateUser(ctx, store.NewUser{
		Username:     "bob",
		Email:        "bob@example.com",
		PasswordHash: "hash-1",
		AvatarURL:    "https://example.com/bob",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	byName, err := s.Users().GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, created.ID, byName.ID)
	require.Equal(t, "bob@example.com", byName.Email)
	require.Equal(t, "hash-1", byName.PasswordHash)
	require.Equal(t, "https://example.com/bob", byName.AvatarURL)

	byEmail, err := s.Users().GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)

	byID, err := s.Users().GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "bob", byID.Username)

	require.NoError(t, s.Users().UpdatePasswordHash(ctx, created.ID, "hash-2"))
	updated, err := s.Users().GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "hash-2", updated.PasswordHash)

	_, err = s.Users().GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Users().GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Users().GetUserByID(ctx, created.ID+1000)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.Users().UpdatePasswordHash(ctx, created.ID+1000, "x"), store.ErrNotFound)
}

func testUserUniqueness(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustUser(t, s, "alice", "alice@example.com")

	_, err := s.Users().CreateUser(ctx, store.NewUser{Username: "alice", Email: "other@example.com", PasswordHash: "h"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.Users().CreateUser(ctx, store.NewUser{Username: "other", Email: "alice@example.com", PasswordHash: "h"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func testItems(t *testing.T, s store.Store) {
	ctx := context.Background()
	bob := mustUser(t, s, "bob", "bob@example.com")
	carol := mustUser(t, s, "carol", "carol@example.com")

	desc := "a note"
	notes, err := s.Items().CreateItem(ctx, store.NewItem{Title: "notes", Description: &desc, OwnerID: bob})
	require.NoError(t, err)
	require.NotZero(t, notes.ID)
	require.Equal(t, bob, notes.OwnerID)

	_, err = s.Items().CreateItem(ctx, store.NewItem{Title: "keys", OwnerID: carol})
	require.NoError(t, err)

	got, err := s.Items().GetItemByID(ctx, notes.ID)
	require.NoError(t, err)
	require.Equal(t, "notes", got.Title)
	require.NotNil(t, got.Description)
	require.Equal(t, "a note", *got.Description)

	bobs, err := s.Items().ListItemsByOwner(ctx, bob, 0, 100)
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	require.Equal(t, notes.ID, bobs[0].ID)

	carols, err := s.Items().ListItemsByOwner(ctx, carol, 0, 100)
	require.NoError(t, err)
	require.Len(t, carols, 1)
	require.Nil(t, carols[0].Description)

	require.NoError(t, s.Items().DeleteItem(ctx, notes.ID))
	_, err = s.Items().GetItemByID(ctx, notes.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Items().DeleteItem(ctx, notes.ID), store.ErrNotFound)
}

func testItemsPaging(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := mustUser(t, s, "pager", "pager@example.com")

	for _, title := range []string{"a", "b", "c", "d", "e"} {
		_, err := s.Items().CreateItem(ctx, store.NewItem{Title: title, OwnerID: owner})
		require.NoError(t, err)
	}

	page, err := s.Items().ListItemsByOwner(ctx, owner, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "b", page[0].Title)
	require.Equal(t, "c", page[1].Title)

	tail, err := s.Items().ListItemsByOwner(ctx, owner, 4, 10)
	require.NoError(t, err)
	require.Len(t, tail, 1)

	empty, err := s.Items().ListItemsByOwner(ctx, owner, 10, 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func testTxRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().CreateUser(ctx, store.NewUser{Username: "ghost", Email: "ghost@example.com", PasswordHash: "h"})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByUsername(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().CreateUser(ctx, store.NewUser{Username: "kept", Email: "kept@example.com", PasswordHash: "h"})
		return err
	})
	require.NoError(t, err)

	_, err = s.Users().GetUserByUsername(ctx, "kept")
	require.NoError(t, err)
}
