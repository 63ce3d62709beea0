package pipeline

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a referenced upload, source, fiche or document that
// does not exist.
var ErrNotFound = errors.New("not found")

// DuplicateError is a content-hash collision with an already committed
// fiche or document. It is a conflict, not a hard failure: the record is
// skipped, siblings proceed.
type DuplicateError struct {
	Hash     string
	Existing string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("content hash %s already committed as %s", e.Hash, e.Existing)
}

// ValidationError is a malformed or incomplete record bundle. Reason is a
// human-readable cause suitable for surfacing to the submitter.
type ValidationError struct {
	Folder string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record in %s: %s", e.Folder, e.Reason)
}

// ExtractionError is an archive or filesystem fault during unpacking. It
// aborts the whole upload: record discovery needs a fully extracted tree.
type ExtractionError struct {
	Archive string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
