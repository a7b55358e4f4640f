package common

// DateBucketLayout formats the calendar day an entry belongs to.
const DateBucketLayout = "2006-01-02"

// SyncServiceName is the fully qualified gRPC service the sync receiver exposes.
const SyncServiceName = "labkeeper.sync.v1.SyncService"
