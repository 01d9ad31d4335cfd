package sqlx

import (
	"testing"

	"github.com/kroma-labs/sentinel-dbtrace/dbtrace"
	"github.com/stretchr/testify/assert"
)

func TestConn_Named(t *testing.T) {
	type user struct {
		Name  string `db:"name"`
		Email string `db:"email"`
	}

	type args struct {
		driverName string
		query      string
		arg        any
	}

	tests := []struct {
		name    string
		args    args
		want    dbtrace.Statement
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name: "given postgres and a map, then binds dollar placeholders",
			args: args{
				driverName: "postgres",
				query:      "SELECT * FROM users WHERE name = :name",
				arg:        map[string]any{"name": "ann"},
			},
			want: dbtrace.Statement{
				SQL:  "SELECT * FROM users WHERE name = $1",
				Args: []any{"ann"},
			},
			wantErr: assert.NoError,
		},
		{
			name: "given mysql and a struct, then binds question marks",
			args: args{
				driverName: "mysql",
				query:      "INSERT INTO users (name, email) VALUES (:name, :email)",
				arg:        user{Name: "ann", Email: "ann@example.com"},
			},
			want: dbtrace.Statement{
				SQL:  "INSERT INTO users (name, email) VALUES (?, ?)",
				Args: []any{"ann", "ann@example.com"},
			},
			wantErr: assert.NoError,
		},
		{
			name: "given a missing parameter, then returns error",
			args: args{
				driverName: "postgres",
				query:      "SELECT * FROM users WHERE name = :name",
				arg:        map[string]any{"email": "x"},
			},
			wantErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, _ := newMock(t, tt.args.driverName)

			got, err := conn.Named(tt.args.query, tt.args.arg)

			if !tt.wantErr(t, err) || err != nil {
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConn_Rebind(t *testing.T) {
	conn, _ := newMock(t, "postgres")

	assert.Equal(t, "SELECT * FROM users WHERE id = $1 AND org = $2",
		conn.Rebind("SELECT * FROM users WHERE id = ? AND org = ?"))
}
