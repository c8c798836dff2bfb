// Package sqlitemigrate applies embedded SQL migrations to a SQLite database.
//
// Files ending in .sql are applied in lexical order, each inside its own
// transaction, and recorded in the schema_migrations table so a file runs at
// most once. Only the "-- +migrate Up" section of a file is executed.
package sqlitemigrate
