// Package postgres implements the store interfaces and the background job
// store on PostgreSQL through database/sql and the pgx driver, and embeds
// the goose schema migrations.
package postgres
