package db

import (
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Connect opens and pings the database. The returned handle is meant to be
// shared by the whole process and passed to NewStore.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s database", driver)
	}
	if driver == DriverSQLite {
		// One writer at a time, and :memory: databases live on a single connection.
		conn.SetMaxOpenConns(1)
	}
	return conn, nil
}

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

func dialectFor(driverName string) dialect {
	switch driverName {
	case DriverSQLite, "sqlite3":
		return dialectSQLite
	default:
		return dialectPostgres
	}
}

func (d dialect) placeholder() squirrel.PlaceholderFormat {
	if d == dialectSQLite {
		return squirrel.Question
	}
	return squirrel.Dollar
}

// Store is the data access layer for subscriptions and their members.
type Store struct {
	db      *sqlx.DB
	dialect dialect
	log     zerolog.Logger
	now     func() time.Time
}

func NewStore(conn *sqlx.DB, log zerolog.Logger) *Store {
	return &Store{
		db:      conn,
		dialect: dialectFor(conn.DriverName()),
		log:     log.With().Str("component", "subscriptions").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}
