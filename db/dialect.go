package db

import (
	"database/sql"
	"fmt"
	"strings"

	"contact-intake/pkg/normalize"

	"github.com/huandu/go-sqlbuilder"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

// sqliteDriverName is go-sqlite3 with the fold_name function registered on
// every connection.
const sqliteDriverName = "sqlite3_intake"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold_name", normalize.Fold, true)
		},
	})
}

// Dialect captures what differs between the supported storage backends.
type Dialect struct {
	Name       string
	DriverName string
	Flavor     sqlbuilder.Flavor
	schemaFile string
}

var (
	SQLite = Dialect{
		Name:       "sqlite",
		DriverName: sqliteDriverName,
		Flavor:     sqlbuilder.SQLite,
		schemaFile: "schema.sqlite.sql",
	}
	Postgres = Dialect{
		Name:       "postgres",
		DriverName: "pgx",
		Flavor:     sqlbuilder.PostgreSQL,
		schemaFile: "schema.postgres.sql",
	}
)

// Fold returns a SQL expression that folds column the same way
// normalize.Fold does.
func (d Dialect) Fold(column string) string {
	if d.Name == Postgres.Name {
		return fmt.Sprintf(
			`TRIM(REGEXP_REPLACE(REGEXP_REPLACE(LOWER(%s), '[^a-z0-9[:space:]]', '', 'g'), '[[:space:]]+', ' ', 'g'))`,
			column,
		)
	}
	return fmt.Sprintf("fold_name(%s)", column)
}

// ParseURL picks a dialect from a connection string and returns the DSN to
// hand to the driver.
func ParseURL(url string) (Dialect, string) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return Postgres, url
	case strings.HasPrefix(url, "sqlite://"):
		return SQLite, strings.TrimPrefix(url, "sqlite://")
	default:
		return SQLite, url
	}
}
