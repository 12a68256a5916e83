package service

const (
	// StreamBatchSize caps stream downloads per sync to stay inside the
	// 15 minute rate limit window
	StreamBatchSize = 50

	// SnapshotsKept is how many plan snapshots survive pruning
	SnapshotsKept = 20
)
