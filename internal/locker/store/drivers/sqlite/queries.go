package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same queries run
// inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

func newQueries(db dbtx) *queries { return &queries{db: db} }

const userColumns = `id, username, email, password_hash, avatar_url, created_at, updated_at`

type userRow struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func scanUser(row *sql.Row) (userRow, error) {
	var u userRow
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *queries) getUserByID(ctx context.Context, id int64) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (q *queries) getUserByUsername(ctx context.Context, username string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (q *queries) getUserByEmail(ctx context.Context, email string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

type createUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	AvatarURL    string
	Now          time.Time
}

func (q *queries) createUser(ctx context.Context, arg createUserParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Username, arg.Email, arg.PasswordHash, arg.AvatarURL, arg.Now, arg.Now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *queries) updateUserPasswordHash(ctx context.Context, id int64, hash string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, now, id,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const itemColumns = `id, title, description, owner_id, created_at`

type itemRow struct {
	ID          int64
	Title       string
	Description sql.NullString
	OwnerID     int64
	CreatedAt   time.Time
}

func (q *queries) getItemByID(ctx context.Context, id int64) (itemRow, error) {
	var it itemRow
	err := q.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id).
		Scan(&it.ID, &it.Title, &it.Description, &it.OwnerID, &it.CreatedAt)
	return it, err
}

func (q *queries) listItemsByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]itemRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []itemRow
	for rows.Next() {
		var it itemRow
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.OwnerID, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type createItemParams struct {
	Title       string
	Description sql.NullString
	OwnerID     int64
	Now         time.Time
}

func (q *queries) createItem(ctx context.Context, arg createItemParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO items (title, description, owner_id, created_at) VALUES (?, ?, ?, ?)`,
		arg.Title, arg.Description, arg.OwnerID, arg.Now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *queries) deleteItem(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
