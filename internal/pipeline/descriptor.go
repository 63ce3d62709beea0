package pipeline

import (
	"encoding/json"
	"fmt"
	"time"
)

// descriptorDateLayout is the calendar-date format the descriptor's
// generation date must parse as.
const descriptorDateLayout = "2006-01-02"

// Descriptor is the typed shape of a record folder's data.json. It is
// externally authored, so it is parsed eagerly into this struct and every
// field is checked before use.
type Descriptor struct {
	Dump    string           `json:"dump"`
	Source  string           `json:"source"`
	Object  string           `json:"object"`
	Summary string           `json:"summary"`
	Date    string           `json:"date"`
	Files   []DescriptorFile `json:"files"`
}

// DescriptorFile declares one document of the record: its type, target and
// original names, extracted content, and message metadata where relevant.
type DescriptorFile struct {
	Type         string           `json:"type"`
	Name         string           `json:"name"`
	OriginalName string           `json:"originalName"`
	Content      string           `json:"content"`
	Path         string           `json:"path,omitempty"`
	Metadata     *MessageMetadata `json:"metadata,omitempty"`
}

// MessageMetadata carries the envelope fields required for Message-typed
// documents.
type MessageMetadata struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Date    string   `json:"date"`
	Subject string   `json:"subject"`
}

// ParseDescriptor decodes descriptor bytes into the typed schema.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("malformed descriptor: %w", err)
	}
	return &d, nil
}

// GenerationDate parses the descriptor's declared generation date.
func (d *Descriptor) GenerationDate() (time.Time, error) {
	t, err := time.Parse(descriptorDateLayout, d.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q does not parse as %s", d.Date, descriptorDateLayout)
	}
	return t, nil
}
