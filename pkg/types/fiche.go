package types

import "time"

// Fiche is one structured record extracted from an upload's archive tree.
// Rows are immutable once committed; the content hash of the primary
// document is unique across all fiches ever stored.
type Fiche struct {
	ID        string    `db:"id" json:"id"`
	Reference string    `db:"reference" json:"reference"`
	SourceID  string    `db:"source_id" json:"sourceId"`
	Date      time.Time `db:"date" json:"date"`
	Object    string    `db:"object" json:"object"`
	Summary   string    `db:"summary" json:"summary"`
	Hash      string    `db:"hash" json:"hash"`
	Path      string    `db:"path" json:"path"`
	UploadID  string    `db:"upload_id" json:"uploadId"`
	Dump      string    `db:"dump" json:"dump"`
}
