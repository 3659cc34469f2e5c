package shared

// EntryID identifies a persisted high-score entry. IDs are assigned by the
// store at insert time, are unique, and are never reused.
type EntryID int64
