// Package pgx adapts a jackc/pgx v5 connection pool to the dbtrace.Conn
// interface.
//
//	conn, err := sentinelpgx.Open(ctx, "postgres://app@localhost:5432/orders")
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	db := dbtrace.New(conn, dbtrace.DefaultConfig().WithDatabaseName("orders"))
//	row, err := db.QueryOne(ctx, dbtrace.NewStatement(
//	    "SELECT id, email FROM users WHERE id = $1", id))
//
// Row values are decoded by pgx into native Go types (int32, int64,
// string, time.Time, pgtype values, ...). ExecuteUnprepared uses the
// simple query protocol.
package pgx
