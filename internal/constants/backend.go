package constants

// Backend identifies which storage implementation holds the stat snapshot.
type Backend string

const (
	// BackendFile stores the snapshot as a JSON document.
	BackendFile Backend = "file"

	// BackendSQLite stores the snapshot in a SQLite database.
	BackendSQLite Backend = "sqlite"
)

// Valid returns true if the backend is a recognized value.
func (b Backend) Valid() bool {
	switch b {
	case BackendFile, BackendSQLite:
		return true
	}
	return false
}

// String returns the string representation of the backend.
func (b Backend) String() string {
	return string(b)
}
