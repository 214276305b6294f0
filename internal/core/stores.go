package core

// Fixed keys under which the interview state is persisted.
const (
	SessionSnapshotKey  = "interview_session"
	ProgressSnapshotKey = "interview_progress"
)

// SnapshotStore is the durable key-value store the session machine writes to.
// Values are opaque structured-text blobs. Get reports found=false for a
// missing key rather than an error.
// This interface is defined locally in core to avoid importing storage.
type SnapshotStore interface {
	Put(key string, value []byte) error
	Get(key string) (value []byte, found bool, err error)
	Remove(key string) error
}
