// Package cli provides the interactive LabKeeper notebook client.
//
// It wires configuration, the local SQLite database, the notebook store,
// the sync engine and blob storage, then drives them from a REPL. The
// prompt always shows connectivity and the aggregate sync state, e.g.
//
//	lk (online pending 2p/0f)>
//
// Notebook commands edit entries through services.NotebookService; sync
// commands act on the change queue directly. A background watcher pings
// the remote and feeds the offline signal, and an optional HTTP listener
// exposes the queue and Prometheus metrics.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
