package core

import "errors"

// Service-level errors surfaced once to the client, no retry policy.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrSyncFailed       = errors.New("sync failed")
	ErrBatchWriteFailed = errors.New("batch write failed")
)
