// Package syncqueue turns saved edits into change records and drives them
// to the remote.
//
// Every save produces its own ChangeQueueItem; records are never merged.
// A record moves pending -> synced or pending -> failed, and a failed
// record goes back to pending only through an explicit retry. Synced
// records are terminal and leave the queue only through ClearSynced.
//
// At most one sync run executes at a time. Items within a run are pushed
// one by one, oldest first, and a failing item never aborts the run.
// A debounced auto-drain pushes pending items in the background; failed
// items are never retried automatically.
package syncqueue
