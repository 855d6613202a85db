package http_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/aussiebroadwan/locker/pkg/lockersdk"
	"github.com/stretchr/testify/require"
)

func itemURL(id int64) string {
	return "/v1/items/" + strconv.FormatInt(id, 10)
}

func ptr[T any](v T) *T { return &v }

func TestItems(t *testing.T) {
	s := newServer(t, options{})
	bobUser := s.register(t, "bob", "bob@example.com", "pw1")
	s.register(t, "carol", "carol@example.com", "pw2")
	bob := s.login(t, "bob", "pw1")
	carol := s.login(t, "carol", "pw2")

	created := s.do(t, http.MethodPost, "/v1/items", bob, lockersdk.ItemRequest{Title: "a", Description: ptr("first")})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	a := decode[lockersdk.ItemResponse](t, created)
	require.Equal(t, "a", a.Title)
	require.Equal(t, bobUser.ID, a.OwnerID)
	require.NotNil(t, a.Description)
	require.Equal(t, "first", *a.Description)

	b := decode[lockersdk.ItemResponse](t, s.do(t, http.MethodPost, "/v1/items", bob, lockersdk.ItemRequest{Title: "b"}))
	require.Nil(t, b.Description)

	t.Run("list is scoped to the caller", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/v1/items", bob, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		items := decode[[]lockersdk.ItemResponse](t, rec)
		require.Len(t, items, 2)
		require.Equal(t, a.ID, items[0].ID)
		require.Equal(t, b.ID, items[1].ID)

		rec = s.do(t, http.MethodGet, "/v1/items", carol, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("paging", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/v1/items?skip=1&limit=1", bob, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		items := decode[[]lockersdk.ItemResponse](t, rec)
		require.Len(t, items, 1)
		require.Equal(t, b.ID, items[0].ID)
	})

	t.Run("bad paging", func(t *testing.T) {
		for _, q := range []string{"?skip=x", "?skip=-1", "?limit=-5"} {
			rec := s.do(t, http.MethodGet, "/v1/items"+q, bob, nil)
			requireAPIError(t, rec, http.StatusBadRequest, lockersdk.ErrorCodeInvalidRequest)
		}
	})

	t.Run("create rejects empty title", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/v1/items", bob, lockersdk.ItemRequest{Title: ""})
		requireAPIError(t, rec, http.StatusBadRequest, lockersdk.ErrorCodeInvalidRequest)
	})

	t.Run("get own item", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, itemURL(a.ID), bob, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, a.ID, decode[lockersdk.ItemResponse](t, rec).ID)
	})

	t.Run("foreign item is forbidden", func(t *testing.T) {
		requireAPIError(t, s.do(t, http.MethodGet, itemURL(a.ID), carol, nil), http.StatusForbidden, lockersdk.ErrorCodeForbidden)
		requireAPIError(t, s.do(t, http.MethodDelete, itemURL(a.ID), carol, nil), http.StatusForbidden, lockersdk.ErrorCodeForbidden)

		// Still there for the owner.
		require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, itemURL(a.ID), bob, nil).Code)
	})

	t.Run("missing item", func(t *testing.T) {
		requireAPIError(t, s.do(t, http.MethodGet, itemURL(9999), bob, nil), http.StatusNotFound, lockersdk.ErrorCodeItemNotFound)
	})

	t.Run("bad id", func(t *testing.T) {
		for _, id := range []string{"abc", "0", "-3"} {
			rec := s.do(t, http.MethodGet, "/v1/items/"+id, bob, nil)
			requireAPIError(t, rec, http.StatusBadRequest, lockersdk.ErrorCodeInvalidRequest)
		}
	})

	t.Run("delete twice", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, itemURL(b.ID), bob, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Body.String())

		requireAPIError(t, s.do(t, http.MethodDelete, itemURL(b.ID), bob, nil), http.StatusNotFound, lockersdk.ErrorCodeItemNotFound)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/v1/items"},
			{http.MethodPost, "/v1/items"},
			{http.MethodGet, itemURL(a.ID)},
			{http.MethodDelete, itemURL(a.ID)},
		} {
			rec := s.do(t, tc.method, tc.path, "", nil)
			requireAPIError(t, rec, http.StatusUnauthorized, lockersdk.ErrorCodeInvalidToken)
		}
	})
}
