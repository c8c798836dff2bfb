// Package output renders vaultlink-cli results as a table, JSON or YAML.
//
// The table format prints scalars on one line, string lists one per line,
// and structs as FIELD/VALUE rows with nested structs flattened into dotted
// field names taken from their json tags.
package output
