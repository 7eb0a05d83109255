package interfaces

// Session is a scoped read/write unit of work against the store.
type Session interface {
	Begin() error
	Close() error
	Commit() error
	Rollback() error
}
