package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kroma-labs/sentinel-dbtrace/dbtrace"
)

// ErrUserNotFound is returned by Users.Get when no row matches.
var ErrUserNotFound = errors.New("user not found")

// User represents a user in the database
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

const (
	createUsersPostgres = `CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	email VARCHAR(100) NOT NULL UNIQUE
)`
	createUsersSQLite = `CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE
)`
	createUserEventsPostgres = `CREATE TABLE IF NOT EXISTS user_events (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users (id),
	kind VARCHAR(32) NOT NULL
)`
	createUserEventsSQLite = `CREATE TABLE IF NOT EXISTS user_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users (id),
	kind TEXT NOT NULL
)`

	listUsers           = "SELECT id, name, email FROM users ORDER BY id LIMIT $1"
	getUser             = "SELECT id, name, email FROM users WHERE id = $1"
	insertUser          = "INSERT INTO users (name, email) VALUES ($1, $2)"
	insertUserReturning = "INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id"
	insertUserEvent     = "INSERT INTO user_events (user_id, kind) VALUES ($1, $2)"
)

// Users is the users repository. Every call goes through the executor it
// was built with, so it is traced when that executor is.
type Users struct {
	conn dbtrace.Conn
}

// NewUsers returns a repository over conn.
func NewUsers(conn dbtrace.Conn) *Users {
	return &Users{conn: conn}
}

// Migrate creates the tables the repository uses.
func (u *Users) Migrate(ctx context.Context) error {
	stmts := []string{createUsersPostgres, createUserEventsPostgres}
	if u.conn.Backend() == dbtrace.SQLite {
		stmts = []string{createUsersSQLite, createUserEventsSQLite}
	}

	for _, stmt := range stmts {
		if _, err := u.conn.ExecuteUnprepared(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

// List returns up to limit users ordered by id.
func (u *Users) List(ctx context.Context, limit int) ([]User, error) {
	rows, err := u.conn.QueryAll(ctx, dbtrace.NewStatement(listUsers, limit))
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(rows))
	for _, row := range rows {
		user, err := scanUser(row)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// Get returns the user with the given id, or ErrUserNotFound.
func (u *Users) Get(ctx context.Context, id int64) (User, error) {
	row, err := u.conn.QueryOne(ctx, dbtrace.NewStatement(getUser, id))
	if err != nil {
		return User{}, err
	}
	if row == nil {
		return User{}, ErrUserNotFound
	}
	return scanUser(*row)
}

// Create inserts a user and its "created" event in one transaction.
func (u *Users) Create(ctx context.Context, name, email string) (User, error) {
	user := User{Name: name, Email: email}

	err := u.conn.Transaction(ctx, func(ctx context.Context, tx dbtrace.Tx) error {
		id, err := u.insert(ctx, tx, name, email)
		if err != nil {
			return err
		}
		user.ID = id

		_, err = tx.Execute(ctx, dbtrace.NewStatement(insertUserEvent, id, "created"))
		return err
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u *Users) insert(ctx context.Context, tx dbtrace.Tx, name, email string) (int64, error) {
	if !u.conn.SupportsReturning() {
		res, err := tx.Execute(ctx, dbtrace.NewStatement(insertUser, name, email))
		if err != nil {
			return 0, err
		}
		return res.LastInsertID, nil
	}

	row, err := tx.QueryOne(ctx, dbtrace.NewStatement(insertUserReturning, name, email))
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, errors.New("insert returned no id")
	}
	v, _ := row.Get("id")
	return toInt64(v)
}

func scanUser(row dbtrace.Row) (User, error) {
	var (
		user User
		err  error
	)

	id, _ := row.Get("id")
	if user.ID, err = toInt64(id); err != nil {
		return User{}, err
	}
	name, _ := row.Get("name")
	user.Name = toString(name)
	email, _ := row.Get("email")
	user.Email = toString(email)

	return user, nil
}

// toInt64 normalises the integer representations drivers hand back.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}
