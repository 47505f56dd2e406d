// Package pipeline orchestrates one cleansing run: list the raw store, read
// every configured table, dispatch it to its cleaner (or pass it through)
// and publish each canonical frame to the clean store and the optional
// warehouse.
//
// A table that fails to read or clean is skipped and reported; the run goes
// on with the remaining tables and returns all table errors joined. Publish
// failures are retried, then logged and counted without failing the run.
//
// Runs are serialized by a [RunLimiter] so that an HTTP trigger, the
// scheduler and the CLI never write the same outputs concurrently.
package pipeline
