package store

import (
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// dialect captures the few places where SQLite and Postgres differ. The
// schema and queries are otherwise shared.
type dialect struct {
	name   string
	driver string
	// snapshot are the options for the transaction that reads variant counts.
	snapshot *sql.TxOptions
}

var (
	sqliteDialect = dialect{name: "sqlite", driver: "sqlite"}

	postgresDialect = dialect{
		name:     "postgres",
		driver:   "pgx",
		snapshot: &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
	}
)

func dialectFor(dsn string) dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgresDialect
	}
	return sqliteDialect
}

// dataSource returns the driver data source name for dsn. SQLite files get a
// busy timeout so writers queue instead of failing with SQLITE_BUSY.
func (d dialect) dataSource(dsn string) string {
	if d.name != "sqlite" {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// rebind rewrites ? placeholders into the $n form Postgres expects.
func (d dialect) rebind(query string) string {
	if d.name != "postgres" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
