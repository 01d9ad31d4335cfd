// Package sqlx adapts jmoiron/sqlx to the dbtrace.Conn interface.
//
// # Features
//
//   - dbtrace.Conn over *sqlx.DB, with transactions over *sqlx.Tx
//   - Named parameter binding (:name) with driver-specific rebinding
//   - Pool options and pool metrics shared with the sql package
//
// # Quick Start
//
//	import (
//	    _ "github.com/lib/pq"
//
//	    "github.com/kroma-labs/sentinel-dbtrace/dbtrace"
//	    sentinelsqlx "github.com/kroma-labs/sentinel-dbtrace/sqlx"
//	)
//
//	conn, err := sentinelsqlx.Connect(ctx, "postgres", dsn, dbtrace.Postgres)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	db := dbtrace.New(conn, dbtrace.DefaultConfig())
//
// # Named Parameters
//
// Named binds a struct or map and rebinds placeholders for the driver, so
// spans see the final SQL:
//
//	type user struct {
//	    Name  string `db:"name"`
//	    Email string `db:"email"`
//	}
//
//	stmt, err := conn.Named(
//	    "INSERT INTO users (name, email) VALUES (:name, :email)",
//	    user{Name: "ann", Email: "ann@example.com"},
//	)
//	if err != nil {
//	    return err
//	}
//	_, err = db.Execute(ctx, stmt) // span "INSERT users"
package sqlx
