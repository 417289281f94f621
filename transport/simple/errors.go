package simple

import "errors"

var (
	ErrEmptyDocumentPath       = errors.New("simple: document path must not be empty")
	ErrInvalidUserData         = errors.New("simple: invalid user data")
	ErrConflictingFieldPath    = errors.New("simple: conflicting field paths")
	ErrConflictingMergeOptions = errors.New("simple: mergeAll and mergeFields are mutually exclusive")
	ErrConflictingPrecondition = errors.New("simple: precondition cannot set both exists and lastUpdateTime")
	ErrDisallowedPrecondition  = errors.New("simple: precondition not allowed for this write kind")
)
