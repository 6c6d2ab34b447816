package ports

import "context"

// Exporter materializes the append log into a human-readable artifact at a
// target path. Exports are idempotent and safely re-runnable: the log is the
// system of record and the artifact is derived, so a failed or interrupted
// export never threatens data integrity.
type Exporter interface {
	// Export writes the artifact for the log's current contents to target,
	// replacing any previous artifact at that path atomically. The row count
	// is snapshotted at entry; samples appended during the export are picked
	// up by the next one.
	Export(ctx context.Context, log SampleLog, target string) error
}
