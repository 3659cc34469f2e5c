package score

import "context"

// Repository is the durable, append-only score store. Insert must be atomic:
// concurrent calls each get a distinct ID and no entry is lost or duplicated.
// TopN reads whatever the store currently holds; it is not serialized against
// concurrent inserts.
type Repository interface {
	Insert(ctx context.Context, submission Submission) (*Entry, error)
	TopN(ctx context.Context, n int) ([]*Entry, error)
}
