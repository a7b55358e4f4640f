// Package client contains the notebook's side of synchronization.
//
// # Overview
//
// The package provides:
//  1. The Remote contract the sync engine drives: one AttemptSync call per
//     change record.
//  2. Simulator, a deterministic in-process Remote with fixed latency and
//     scripted failures, used when no sync receiver is configured and in
//     tests.
//  3. GRPCClient, a Remote talking to the sync receiver over gRPC, mapping
//     gRPC status codes to sentinel errors.
//  4. Connectivity, the shared "currently offline" signal.
//  5. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Remote failures are plain errors; the sync engine records their message
// on the change record and never propagates them further. ErrUnavailable
// can be matched with errors.Is.
package client
