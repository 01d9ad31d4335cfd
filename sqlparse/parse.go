package sqlparse

import (
	"regexp"
	"strings"
)

// quote matches the identifier quoting styles of the supported backends:
// backticks (MySQL), double quotes (PostgreSQL, SQLite) and brackets.
const quote = "[`\"\\[]?"

const unquote = "[`\"\\]]?"

// Table extraction patterns, one per operation that names a table in a
// predictable position. Each captures the first identifier only.
var tablePatterns = map[Operation]*regexp.Regexp{
	Select:   tablePattern(`FROM\s+`),
	Insert:   tablePattern(`INSERT\s+INTO\s+`),
	Update:   tablePattern(`UPDATE\s+`),
	Delete:   tablePattern(`DELETE\s+FROM\s+`),
	Create:   tablePattern(`CREATE\s+(?:TEMP(?:ORARY)?\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?`),
	Drop:     tablePattern(`DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?`),
	Alter:    tablePattern(`ALTER\s+TABLE\s+`),
	Truncate: tablePattern(`TRUNCATE\s+(?:TABLE\s+)?`),
}

// ident is a Unicode-aware \w; Go's \w and \b only cover ASCII.
const ident = `[\p{L}\p{N}_]`

func tablePattern(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])` + keyword + quote + `(` + ident + `+)` + unquote)
}

// ExtractTable returns the lower-cased name of the first table the
// statement refers to, with quoting stripped.
//
// This is a best-effort heuristic for dashboards, not a parser: joins,
// subqueries and CTEs only ever report the first matched table.
// BEGIN, COMMIT, ROLLBACK, SET and unclassified statements never report
// a table.
//
// Example:
//
//	ExtractTable(`SELECT * FROM "Users" WHERE id = 1`) // "users", true
//	ExtractTable("COMMIT")                             // "", false
func ExtractTable(sql string) (string, bool) {
	return extractTable(ParseOperation(sql), sql)
}

func extractTable(op Operation, sql string) (string, bool) {
	re, ok := tablePatterns[op]
	if !ok {
		return "", false
	}

	m := re.FindStringSubmatch(sql)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// Parsed holds what the classifier learned about one statement.
// An empty Table means no table could be determined.
type Parsed struct {
	Operation Operation
	Table     string
}

// Parse classifies sql and extracts its table in one pass.
func Parse(sql string) Parsed {
	op := ParseOperation(sql)
	table, _ := extractTable(op, sql)
	return Parsed{Operation: op, Table: table}
}

// SpanName returns "<OPERATION> <table>", or just "<OPERATION>" when no
// table was found.
//
// Example:
//
//	Parse("SELECT * FROM users WHERE id = 1").SpanName() // "SELECT users"
//	Parse("BEGIN").SpanName()                            // "BEGIN"
func (p Parsed) SpanName() string {
	if p.Table == "" {
		return p.Operation.String()
	}
	return p.Operation.String() + " " + p.Table
}
