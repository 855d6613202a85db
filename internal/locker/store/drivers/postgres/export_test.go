package postgres

import "context"

// Truncate empties every table so integration subtests start clean.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE items, users RESTART IDENTITY CASCADE`)
	return err
}
