package types

// Document is one file belonging to a fiche. File-typed documents also
// carry their undecoded original counterpart (name, path, hash).
type Document struct {
	ID           string `db:"id" json:"id"`
	FicheID      string `db:"fiche_id" json:"ficheId"`
	Type         string `db:"type" json:"type"`
	Name         string `db:"name" json:"name"`
	Path         string `db:"path" json:"path"`
	Hash         string `db:"hash" json:"hash"`
	Content      string `db:"content" json:"content"`
	Metadata     string `db:"metadata" json:"metadata"`
	OriginalName string `db:"original_name" json:"originalName"`
	OriginalPath string `db:"original_path" json:"originalPath"`
	OriginalHash string `db:"original_hash" json:"originalHash"`
}

// Document type constants
const (
	DocTypeFile       = "File"
	DocTypeMessage    = "Message"
	DocTypeAttachment = "Attachment"
)
