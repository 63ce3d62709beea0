package types

import "time"

// Upload represents one user-submitted artifact awaiting (or past)
// background processing.
type Upload struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	DisplayName string    `db:"display_name" json:"displayName"`
	Type        string    `db:"type" json:"type"`
	Date        time.Time `db:"date" json:"date"`
	FileName    string    `db:"file_name" json:"fileName"`
	Path        string    `db:"path" json:"path"`
	Hash        string    `db:"hash" json:"hash"`
	Status      string    `db:"status" json:"status"`
}

// Upload submission types
const (
	UploadTypeFile = "file"
	UploadTypeAPI  = "api"
	UploadTypeForm = "form"
)

// Upload processing statuses. An upload is created as pending, flipped to
// processing when enqueued, and ends in one of the terminal states once the
// worker has drained it.
const (
	UploadStatusPending    = "pending"
	UploadStatusProcessing = "processing"
	UploadStatusDone       = "done"
	UploadStatusPartial    = "partial"
	UploadStatusFailed     = "failed"
)
