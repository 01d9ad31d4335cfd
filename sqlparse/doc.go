// Package sqlparse classifies raw SQL text for tracing purposes.
//
// It infers the statement kind from the leading keyword and, for
// statements that name a table in a predictable position, the first
// table referenced. It is a heuristic for labelling spans and dashboards;
// it does not validate or fully parse SQL.
//
//	p := sqlparse.Parse(`SELECT * FROM "Users" WHERE id = $1`)
//	p.Operation   // sqlparse.Select
//	p.Table       // "users"
//	p.SpanName()  // "SELECT users"
package sqlparse
