package db

import (
	"context"

	"github.com/pkg/errors"
)

// Works on SQLite and on PostgreSQL 9.5+.
const createCategoryIndex = `CREATE UNIQUE INDEX IF NOT EXISTS "subscriptions_category_unique" ON "subscriptions" ("category")`

var schemas = map[dialect][]string{
	dialectPostgres: {
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id SERIAL PRIMARY KEY,
			created_on TIMESTAMP,
			category VARCHAR(255),
			sub_keywords TEXT,
			unsub_keywords TEXT,
			sub_action VARCHAR(255),
			unsub_action VARCHAR(255),
			sub_action_type VARCHAR(255),
			unsub_action_type VARCHAR(255)
		)`,
		`CREATE TABLE IF NOT EXISTS subscription_users (
			"subscriptionId" INTEGER REFERENCES subscriptions(id),
			"userId" VARCHAR(255),
			ts TIMESTAMP,
			PRIMARY KEY ("subscriptionId", "userId")
		)`,
		createCategoryIndex,
	},
	dialectSQLite: {
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_on TIMESTAMP,
			category VARCHAR(255),
			sub_keywords TEXT,
			unsub_keywords TEXT,
			sub_action VARCHAR(255),
			unsub_action VARCHAR(255),
			sub_action_type VARCHAR(255),
			unsub_action_type VARCHAR(255)
		)`,
		`CREATE TABLE IF NOT EXISTS subscription_users (
			"subscriptionId" INTEGER REFERENCES subscriptions(id),
			"userId" VARCHAR(255),
			ts TIMESTAMP,
			PRIMARY KEY ("subscriptionId", "userId")
		)`,
		createCategoryIndex,
	},
}

// Bootstrap creates the tables and the category index when they are missing.
// Existing data is left alone, so it runs on every start.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, stmt := range schemas[s.dialect] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.log.Error().Err(err).Msg("bootstrapping schema")
			return errors.Wrap(err, "bootstrapping subscriptions schema")
		}
	}
	return nil
}
