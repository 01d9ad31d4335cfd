package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kroma-labs/sentinel-dbtrace/dbtrace"
)

var (
	userColumns = []string{"id", "name", "email"}

	errDuplicateEmail = errors.New(`duplicate key value violates unique constraint "users_email_key"`)
)

// memStore backs the mock backend. Writes are applied immediately; a
// rolled back transaction does not undo them.
type memStore struct {
	mu     sync.Mutex
	users  []User
	events int
}

// NewMockConn returns an in-memory backend that understands the
// statements issued by Users, seeded with two users.
func NewMockConn() *dbtrace.MockConn {
	s := &memStore{
		users: []User{
			{ID: 1, Name: "Alice", Email: "alice@example.com"},
			{ID: 2, Name: "Bob", Email: "bob@example.com"},
		},
	}
	return &dbtrace.MockConn{
		BackendKind: dbtrace.Postgres,
		ExecFunc:    s.exec,
		QueryFunc:   s.query,
	}
}

func (s *memStore) exec(_ context.Context, stmt dbtrace.Statement) (dbtrace.ExecResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch stmt.SQL {
	case insertUserEvent:
		s.events++
		return dbtrace.ExecResult{RowsAffected: 1, LastInsertID: int64(s.events)}, nil
	case insertUser:
		user, err := s.insertLocked(stmt.Args)
		if err != nil {
			return dbtrace.ExecResult{}, err
		}
		return dbtrace.ExecResult{RowsAffected: 1, LastInsertID: user.ID}, nil
	default:
		return dbtrace.ExecResult{}, nil
	}
}

func (s *memStore) query(_ context.Context, stmt dbtrace.Statement) ([]dbtrace.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch stmt.SQL {
	case listUsers:
		limit := len(s.users)
		if len(stmt.Args) == 1 {
			if n, ok := stmt.Args[0].(int); ok && n < limit {
				limit = n
			}
		}
		rows := make([]dbtrace.Row, 0, limit)
		for _, u := range s.users[:limit] {
			rows = append(rows, userRow(u))
		}
		return rows, nil
	case getUser:
		if len(stmt.Args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(stmt.Args))
		}
		id, err := toInt64(stmt.Args[0])
		if err != nil {
			return nil, err
		}
		for _, u := range s.users {
			if u.ID == id {
				return []dbtrace.Row{userRow(u)}, nil
			}
		}
		return nil, nil
	case insertUserReturning:
		user, err := s.insertLocked(stmt.Args)
		if err != nil {
			return nil, err
		}
		return []dbtrace.Row{{Columns: []string{"id"}, Values: []any{user.ID}}}, nil
	default:
		return nil, fmt.Errorf("mock backend cannot answer %q", stmt.SQL)
	}
}

func (s *memStore) insertLocked(args []any) (User, error) {
	if len(args) != 2 {
		return User{}, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	user := User{Name: toString(args[0]), Email: toString(args[1])}
	for _, u := range s.users {
		if u.Email == user.Email {
			return User{}, errDuplicateEmail
		}
	}

	user.ID = 1
	if n := len(s.users); n > 0 {
		user.ID = s.users[n-1].ID + 1
	}
	s.users = append(s.users, user)
	return user, nil
}

func userRow(u User) dbtrace.Row {
	return dbtrace.Row{Columns: userColumns, Values: []any{u.ID, u.Name, u.Email}}
}
