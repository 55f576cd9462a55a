// Package postgres is a Postgres-backed registry.Store, for deployments
// where the component signature catalog is shared across many interpreter
// processes and needs a real server with connection pooling behind it.
package postgres
