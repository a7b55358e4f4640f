// Package snapshots persists the notebook's collections as whole-document
// snapshots in the local SQLite database.
//
// Every key (projects, experiments, entries, attachments) holds a single
// JSON document that is replaced on each write. Get returns (nil, nil) for
// a key that was never written, which lets the store fall back to seeds.
//
// SQLiteRepository works over dbx.DBTX, so it can run inside a transaction.
package snapshots
