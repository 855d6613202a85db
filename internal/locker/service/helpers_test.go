package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/delivery"
	"github.com/aussiebroadwan/locker/internal/locker/domain"
	"github.com/aussiebroadwan/locker/internal/locker/service"
	"github.com/aussiebroadwan/locker/internal/locker/store"
	"github.com/aussiebroadwan/locker/internal/locker/store/drivers/memory"
	"github.com/aussiebroadwan/locker/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-test-secret-test-secret!")

// fastParams keeps argon2 cheap enough for unit tests.
var fastParams = cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	store    *memory.Store
	clock    *clock
	tokens   *service.TokenService
	hasher   *cryptox.Hasher
	recorder *delivery.Recorder
	auth     *service.AuthService
	guard    *service.AuthGuard
	items    *service.ItemService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	c := &clock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret:     testSecret,
		Issuer:     "locker-test",
		SessionTTL: 30 * time.Minute,
		ResetTTL:   15 * time.Minute,
		Now:        c.Now,
	})
	require.NoError(t, err)

	st := memory.NewStore()
	hasher := cryptox.NewHasher(fastParams, "pepper")
	rec := &delivery.Recorder{}

	return &fixture{
		store:    st,
		clock:    c,
		tokens:   tokens,
		hasher:   hasher,
		recorder: rec,
		auth: &service.AuthService{
			Store:    st,
			Hasher:   hasher,
			Tokens:   tokens,
			Delivery: rec,
			ResetURL: "http://localhost:5175/reset-password",
		},
		guard: &service.AuthGuard{Tokens: tokens, Store: st},
		items: &service.ItemService{Store: st},
	}
}

func (f *fixture) register(t *testing.T, username, email, password string) domain.PublicUser {
	t.Helper()
	u, err := f.auth.Register(context.Background(), service.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) login(t *testing.T, username, password string) string {
	t.Helper()
	s, err := f.auth.Login(context.Background(), username, password)
	require.NoError(t, err)
	return s.AccessToken
}

func (f *fixture) user(t *testing.T, username string) domain.User {
	t.Helper()
	u, err := f.store.Users().GetUserByUsername(context.Background(), username)
	require.NoError(t, err)
	return u
}

var errTxAborted = errors.New("tx aborted")

// abortingStore runs fn inside the real transaction, then rolls it back.
type abortingStore struct {
	store.Store
	calls int
}

func (s *abortingStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.calls++
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errTxAborted
	})
}
