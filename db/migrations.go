// Package db holds the Postgres schema.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
