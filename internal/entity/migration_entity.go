package entity

// MigrationStatus is the single global value tracking the one-way upgrade
// from the keyed store to the transactional store. Persisted independently
// of record data.
type MigrationStatus string

const (
	MigrationNotStarted MigrationStatus = "NOT_STARTED"
	MigrationInProgress MigrationStatus = "IN_PROGRESS"
	MigrationCompleted  MigrationStatus = "COMPLETED"
	MigrationFailed     MigrationStatus = "FAILED"
	MigrationSkipped    MigrationStatus = "SKIPPED"
)

// Valid reports whether s is one of the five enumerated values.
func (s MigrationStatus) Valid() bool {
	switch s {
	case MigrationNotStarted, MigrationInProgress, MigrationCompleted, MigrationFailed, MigrationSkipped:
		return true
	}
	return false
}

// Terminal reports whether no further automatic transition may occur.
// An explicit reset still forces NOT_STARTED for diagnostics.
func (s MigrationStatus) Terminal() bool {
	return s == MigrationCompleted || s == MigrationSkipped
}
