// Package memory is a process-local store.Store used by tests and by the
// "memory" store setting for throwaway local runs. Data is lost on exit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
	"github.com/aussiebroadwan/locker/internal/locker/store"
)

type state struct {
	users      map[int64]domain.User
	items      map[int64]domain.Item
	nextUserID int64
	nextItemID int64
}

func newState() *state {
	return &state{
		users: make(map[int64]domain.User),
		items: make(map[int64]domain.Item),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:      make(map[int64]domain.User, len(s.users)),
		items:      make(map[int64]domain.Item, len(s.items)),
		nextUserID: s.nextUserID,
		nextItemID: s.nextItemID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}

// backend abstracts locking so repos work the same on the store and inside
// a transaction, where the store lock is already held.
type backend interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
	now() time.Time
}

type Store struct {
	mu    sync.RWMutex
	st    *state
	clock func() time.Time
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		st:    newState(),
		clock: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

func (s *Store) write(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) now() time.Time { return s.clock() }

func (s *Store) Users() store.Users { return &usersRepo{b: s} }
func (s *Store) Items() store.Items { return &itemsRepo{b: s} }

func (s *Store) ApplyMigrations() error        { return nil }
func (s *Store) Close() error                  { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// WithTx runs fn against a copy of the data and swaps it in on success.
// Transactions are serialised with every other write.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	t := &txStore{st: s.st.clone(), clock: s.clock}
	if err := fn(t); err != nil {
		return err
	}
	s.st = t.st
	return nil
}

type txStore struct {
	st    *state
	clock func() time.Time
}

func (t *txStore) read(fn func(st *state) error) error  { return fn(t.st) }
func (t *txStore) write(fn func(st *state) error) error { return fn(t.st) }
func (t *txStore) now() time.Time                       { return t.clock() }

func (t *txStore) Users() store.Users { return &usersRepo{b: t} }
func (t *txStore) Items() store.Items { return &itemsRepo{b: t} }

type usersRepo struct {
	b backend
}

func (r *usersRepo) find(match func(domain.User) bool) (domain.User, error) {
	var found domain.User
	err := r.b.read(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				found = u
				return nil
			}
		}
		return store.ErrNotFound
	})
	return found, err
}

func (r *usersRepo) GetUserByID(_ context.Context, id int64) (domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

func (r *usersRepo) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *usersRepo) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *usersRepo) CreateUser(_ context.Context, nu store.NewUser) (domain.User, error) {
	var created domain.User
	err := r.b.write(func(st *state) error {
		for _, u := range st.users {
			if u.Username == nu.Username || u.Email == nu.Email {
				return store.ErrAlreadyExists
			}
		}

		st.nextUserID++
		now := r.b.now()
		created = domain.User{
			ID:           st.nextUserID,
			Username:     nu.Username,
			Email:        nu.Email,
			PasswordHash: nu.PasswordHash,
			AvatarURL:    nu.AvatarURL,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		st.users[created.ID] = created
		return nil
	})
	return created, err
}

func (r *usersRepo) UpdatePasswordHash(_ context.Context, userID int64, newHash string) error {
	return r.b.write(func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return store.ErrNotFound
		}
		u.PasswordHash = newHash
		u.UpdatedAt = r.b.now()
		st.users[userID] = u
		return nil
	})
}

type itemsRepo struct {
	b backend
}

func (r *itemsRepo) ListItemsByOwner(_ context.Context, ownerID int64, offset, limit int) ([]domain.Item, error) {
	var out []domain.Item
	err := r.b.read(func(st *state) error {
		for _, it := range st.items {
			if it.OwnerID == ownerID {
				out = append(out, it)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if offset >= len(out) {
		return []domain.Item{}, nil
	}
	out = out[offset:]
	if limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *itemsRepo) CreateItem(_ context.Context, ni store.NewItem) (domain.Item, error) {
	var created domain.Item
	err := r.b.write(func(st *state) error {
		if _, ok := st.users[ni.OwnerID]; !ok {
			return store.ErrNotFound
		}

		st.nextItemID++
		created = domain.Item{
			ID:          st.nextItemID,
			Title:       ni.Title,
			Description: copyString(ni.Description),
			OwnerID:     ni.OwnerID,
			CreatedAt:   r.b.now(),
		}
		st.items[created.ID] = created
		return nil
	})
	return created, err
}

func (r *itemsRepo) GetItemByID(_ context.Context, id int64) (domain.Item, error) {
	var found domain.Item
	err := r.b.read(func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return store.ErrNotFound
		}
		found = it
		return nil
	})
	return found, err
}

func (r *itemsRepo) DeleteItem(_ context.Context, id int64) error {
	return r.b.write(func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return store.ErrNotFound
		}
		delete(st.items, id)
		return nil
	})
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
