package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
	"github.com/aussiebroadwan/locker/internal/locker/service"
	"github.com/aussiebroadwan/locker/pkg/httpx"
	"github.com/aussiebroadwan/locker/pkg/lockersdk"
)

// ItemsHandler serves /v1/items. Every route runs behind the auth guard.
type ItemsHandler struct {
	ItemService *service.ItemService
}

// HandleList godoc
//
//	@Summary		List my items
//	@Description	Returns only the caller's items, oldest first.
//	@Tags			Items
//	@Security		BearerAuth
//	@Produce		json
//	@Param			skip	query		int	false	"Items to skip"			minimum(0)
//	@Param			limit	query		int	false	"Page size, max 100"	minimum(0)	maximum(100)
//	@Success		200		{array}		lockersdk.ItemResponse
//	@Failure		400		{object}	lockersdk.ErrorResponse
//	@Failure		401		{object}	lockersdk.ErrorResponse
//	@Router			/v1/items [get].
func (h *ItemsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		lockersdk.ErrInvalidToken.WriteError(w)
		return
	}

	page, err := pageFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	items, err := h.ItemService.List(r.Context(), u, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]lockersdk.ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, itemResponse(it))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCreate godoc
//
//	@Summary		Create an item
//	@Tags			Items
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		lockersdk.ItemRequest	true	"title, optional description"
//	@Success		201		{object}	lockersdk.ItemResponse
//	@Failure		400		{object}	lockersdk.ErrorResponse
//	@Failure		401		{object}	lockersdk.ErrorResponse
//	@Router			/v1/items [post].
func (h *ItemsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		lockersdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req lockersdk.ItemRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		invalidRequest(w, err)
		return
	}

	it, err := h.ItemService.Create(r.Context(), u, req.Title, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, itemResponse(it))
}

// HandleGet godoc
//
//	@Summary		Get an item
//	@Tags			Items
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Item ID"
//	@Success		200	{object}	lockersdk.ItemResponse
//	@Failure		401	{object}	lockersdk.ErrorResponse
//	@Failure		403	{object}	lockersdk.ErrorResponse	"owned by another user"
//	@Failure		404	{object}	lockersdk.ErrorResponse
//	@Router			/v1/items/{id} [get].
func (h *ItemsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, id, ok := itemRequest(w, r)
	if !ok {
		return
	}

	it, err := h.ItemService.Get(r.Context(), u, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, itemResponse(it))
}

// HandleDelete godoc
//
//	@Summary		Delete an item
//	@Tags			Items
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Item ID"
//	@Success		204
//	@Failure		401	{object}	lockersdk.ErrorResponse
//	@Failure		403	{object}	lockersdk.ErrorResponse	"owned by another user"
//	@Failure		404	{object}	lockersdk.ErrorResponse
//	@Router			/v1/items/{id} [delete].
func (h *ItemsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, id, ok := itemRequest(w, r)
	if !ok {
		return
	}

	if err := h.ItemService.Delete(r.Context(), u, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func itemRequest(w http.ResponseWriter, r *http.Request) (domain.User, int64, bool) {
	u, ok := currentUser(r)
	if !ok {
		lockersdk.ErrInvalidToken.WriteError(w)
		return domain.User{}, 0, false
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		lockersdk.NewAPIError(http.StatusBadRequest, lockersdk.ErrorCodeInvalidRequest, "id must be a positive integer").WriteError(w)
		return domain.User{}, 0, false
	}
	return u, id, true
}

func pageFromQuery(r *http.Request) (service.Page, error) {
	var p service.Page
	q := r.URL.Query()

	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"skip", &p.Skip},
		{"limit", &p.Limit},
	} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, &service.InputError{Field: f.name, Reason: "must be an integer"}
		}
		*f.dst = n
	}
	return p, nil
}

func itemResponse(it domain.Item) lockersdk.ItemResponse {
	return lockersdk.ItemResponse{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		OwnerID:     it.OwnerID,
		CreatedAt:   it.CreatedAt,
	}
}
