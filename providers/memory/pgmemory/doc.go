// Package pgmemory provides a PostgreSQL-backed implementation of the
// [memory.Store] interface for persisting conversations across process
// restarts. It uses pgx/v5 and works with any executor that satisfies
// [TxQuerier], typically a *pgxpool.Pool.
//
// [Connect] opens and owns a pool; [New] wraps a caller-managed one.
// [Store.Migrate] creates the schema and adopts messages written before
// conversations existed. Production deployments that manage schema changes
// with dedicated tooling (goose, migrate, etc.) can skip it after the first run.
package pgmemory
