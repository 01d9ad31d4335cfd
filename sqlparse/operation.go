package sqlparse

import (
	"strings"
	"unicode"
)

// Operation is the kind of SQL statement, derived from its leading keyword.
type Operation int

const (
	Other Operation = iota
	Select
	Insert
	Update
	Delete
	Create
	Drop
	Alter
	Truncate
	Begin
	Commit
	Rollback
	Set
)

// String returns the uppercase label used in span names and the
// db.operation attribute. Unclassified statements are labelled "QUERY".
func (o Operation) String() string {
	switch o {
	case Select:
		return "SELECT"
	case Insert:
		return "INSERT"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	case Create:
		return "CREATE"
	case Drop:
		return "DROP"
	case Alter:
		return "ALTER"
	case Truncate:
		return "TRUNCATE"
	case Begin:
		return "BEGIN"
	case Commit:
		return "COMMIT"
	case Rollback:
		return "ROLLBACK"
	case Set:
		return "SET"
	default:
		return "QUERY"
	}
}

// prefixLen is how much of the statement is inspected for the keyword.
const prefixLen = 15

// keywords is checked in order; the first matching prefix wins.
var keywords = []struct {
	prefix string
	op     Operation
}{
	{"SELECT", Select},
	{"WITH", Select},
	{"INSERT", Insert},
	{"UPDATE", Update},
	{"DELETE", Delete},
	{"CREATE", Create},
	{"DROP", Drop},
	{"ALTER", Alter},
	{"TRUNCATE", Truncate},
	{"BEGIN", Begin},
	{"START", Begin},
	{"COMMIT", Commit},
	{"ROLLBACK", Rollback},
	{"SET", Set},
}

// ParseOperation classifies a statement by its leading keyword.
//
// Only the first few characters after leading whitespace are inspected,
// case-insensitively. Anything unrecognised, including an empty string,
// yields Other.
//
// Example:
//
//	ParseOperation("  select 1")   // Select
//	ParseOperation("DROP TABLE t") // Drop
//	ParseOperation("garbage")      // Other
func ParseOperation(sql string) Operation {
	head := strings.TrimLeftFunc(sql, unicode.IsSpace)
	if head == "" {
		return Other
	}

	runes := []rune(head)
	if len(runes) > prefixLen {
		runes = runes[:prefixLen]
	}
	upper := strings.ToUpper(string(runes))

	for _, kw := range keywords {
		if strings.HasPrefix(upper, kw.prefix) {
			return kw.op
		}
	}
	return Other
}
