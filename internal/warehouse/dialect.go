package warehouse

import (
	"strconv"
	"strings"
)

// dialect captures the few differences between SQLite and PostgreSQL that
// the warehouse cares about.
type dialect struct {
	name       string
	driverName string // database/sql driver
	idColumn   string
	timeType   string
	boolType   string
	floatType  string
	numbered   bool // $1, $2 placeholders instead of ?
}

var (
	sqliteDialect = dialect{
		name:       "sqlite",
		driverName: "sqlite",
		idColumn:   "INTEGER PRIMARY KEY AUTOINCREMENT",
		timeType:   "DATETIME",
		boolType:   "INTEGER",
		floatType:  "REAL",
	}
	postgresDialect = dialect{
		name:       "postgres",
		driverName: "pgx",
		idColumn:   "BIGSERIAL PRIMARY KEY",
		timeType:   "TIMESTAMPTZ",
		boolType:   "BOOLEAN",
		floatType:  "DOUBLE PRECISION",
		numbered:   true,
	}
)

// rebind rewrites ? placeholders for dialects that number them. Queries in
// this package never contain a literal '?'.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
