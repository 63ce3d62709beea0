package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fichebox/internal/utils"
	"fichebox/pkg/types"
)

// FicheFinder looks up committed fiches for dedup checks.
type FicheFinder interface {
	ByHash(ctx context.Context, hash string) (*types.Fiche, error)
}

// DocumentFinder looks up committed documents for dedup checks.
type DocumentFinder interface {
	ByHash(ctx context.Context, hash string) (*types.Document, error)
}

// SourceFinder resolves descriptor source names against the catalog.
type SourceFinder interface {
	ByName(ctx context.Context, name string) (*types.Source, error)
}

// FileMove maps an extraction-tree file to its storage-relative
// destination, applied by the committer.
type FileMove struct {
	From string
	To   string
}

// NormalizedFiche is the validated, fully resolved in-memory record ready
// for an atomic commit.
type NormalizedFiche struct {
	Fiche     types.Fiche
	Documents []types.Document
	Moves     []FileMove
}

// Validator cross-checks a classified bundle against its descriptor and
// the store, producing either a normalized record or a structured failure.
// It never writes anything: a record is committed whole or not at all.
type Validator struct {
	fiches    FicheFinder
	documents DocumentFinder
	sources   SourceFinder
}

func NewValidator(fiches FicheFinder, documents DocumentFinder, sources SourceFinder) *Validator {
	return &Validator{
		fiches:    fiches,
		documents: documents,
		sources:   sources,
	}
}

// Validate runs the fail-fast check sequence over one bundle. Validation
// failures come back as *ValidationError with a human-readable cause;
// hash collisions as *DuplicateError. A failure affects this folder only.
func (v *Validator) Validate(ctx context.Context, bundle *Bundle, uploadID string) (*NormalizedFiche, error) {
	descriptorBytes, err := os.ReadFile(bundle.DescriptorPath)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	descriptor, err := ParseDescriptor(descriptorBytes)
	if err != nil {
		return nil, v.fail(bundle, "descriptor is not valid JSON")
	}

	primaryHash, err := FileHash(bundle.PrimaryPath)
	if err != nil {
		return nil, fmt.Errorf("hash primary document: %w", err)
	}
	existing, err := v.fiches.ByHash(ctx, primaryHash)
	if err != nil {
		return nil, fmt.Errorf("check fiche dedup: %w", err)
	}
	if existing != nil {
		return nil, &DuplicateError{Hash: primaryHash, Existing: "fiche " + existing.Reference}
	}

	if descriptor.Dump == "" {
		return nil, v.fail(bundle, "descriptor is missing the dump correlation token")
	}
	if descriptor.Source == "" {
		return nil, v.fail(bundle, "descriptor is missing the source name")
	}
	source, err := v.sources.ByName(ctx, descriptor.Source)
	if err != nil {
		return nil, fmt.Errorf("resolve source: %w", err)
	}
	if source == nil {
		return nil, v.fail(bundle, fmt.Sprintf("source %q is not in the catalog", descriptor.Source))
	}
	if descriptor.Object == "" {
		return nil, v.fail(bundle, "descriptor is missing the object")
	}
	if descriptor.Summary == "" {
		return nil, v.fail(bundle, "descriptor is missing the summary")
	}
	date, err := descriptor.GenerationDate()
	if err != nil {
		return nil, v.fail(bundle, err.Error())
	}

	if len(descriptor.Files) != len(bundle.Pairs) {
		return nil, v.fail(bundle, fmt.Sprintf("descriptor declares %d files but %d document pairs were found",
			len(descriptor.Files), len(bundle.Pairs)))
	}

	for i, file := range descriptor.Files {
		if file.Name == "" {
			return nil, v.fail(bundle, fmt.Sprintf("file %d has no target name", i+1))
		}
		if !plainFileName(file.Name) {
			return nil, v.fail(bundle, fmt.Sprintf("file %d name %q is not a plain file name", i+1, file.Name))
		}
		if file.OriginalName == "" {
			return nil, v.fail(bundle, fmt.Sprintf("file %d has no original name", i+1))
		}
		switch file.Type {
		case types.DocTypeFile, types.DocTypeMessage, types.DocTypeAttachment:
		default:
			return nil, v.fail(bundle, fmt.Sprintf("file %d has unknown type %q", i+1, file.Type))
		}
		if file.Content == "" {
			return nil, v.fail(bundle, fmt.Sprintf("file %d has no content", i+1))
		}
		if file.Type == types.DocTypeMessage {
			m := file.Metadata
			switch {
			case m == nil:
				return nil, v.fail(bundle, fmt.Sprintf("message file %d has no metadata", i+1))
			case m.From == "":
				return nil, v.fail(bundle, fmt.Sprintf("message file %d has no sender", i+1))
			case len(m.To) == 0:
				return nil, v.fail(bundle, fmt.Sprintf("message file %d has no recipients", i+1))
			case m.Date == "":
				return nil, v.fail(bundle, fmt.Sprintf("message file %d has no date", i+1))
			case m.Subject == "":
				return nil, v.fail(bundle, fmt.Sprintf("message file %d has no subject", i+1))
			}
		}
	}

	// Destination layout: storage-relative, derived from source name,
	// generation date and folder name.
	folderName := filepath.Base(bundle.Folder)
	destDir := filepath.Join("data", "fiches", descriptor.Source, date.Format("20060102"), folderName)

	record := &NormalizedFiche{
		Fiche: types.Fiche{
			ID:        utils.NanoID(),
			Reference: utils.FicheReference(),
			SourceID:  source.ID,
			Date:      date,
			Object:    descriptor.Object,
			Summary:   descriptor.Summary,
			Hash:      primaryHash,
			Path:      filepath.Join(destDir, filepath.Base(bundle.PrimaryPath)),
			UploadID:  uploadID,
			Dump:      descriptor.Dump,
		},
	}
	record.Moves = append(record.Moves, FileMove{From: bundle.PrimaryPath, To: record.Fiche.Path})

	for _, pair := range bundle.Pairs {
		if pair.Index < 0 {
			return nil, v.fail(bundle, fmt.Sprintf("document %q has no numeric prefix pairing it with a descriptor entry", pairLabel(pair)))
		}
		if pair.Index >= len(descriptor.Files) {
			return nil, v.fail(bundle, fmt.Sprintf("document %q declares prefix %d but the descriptor lists only %d files",
				pairLabel(pair), pair.Index+1, len(descriptor.Files)))
		}
		declared := descriptor.Files[pair.Index]

		if pair.SourcePath == "" {
			return nil, v.fail(bundle, fmt.Sprintf("declared file %q has no source document", declared.Name))
		}
		if pair.OriginPath == "" {
			return nil, v.fail(bundle, fmt.Sprintf("declared file %q has no origin document", declared.Name))
		}
		if _, err := os.Stat(pair.SourcePath); err != nil {
			return nil, v.fail(bundle, fmt.Sprintf("source document for %q is missing on disk", declared.Name))
		}
		if _, err := os.Stat(pair.OriginPath); err != nil {
			return nil, v.fail(bundle, fmt.Sprintf("origin document for %q is missing on disk", declared.Name))
		}

		sourceHash, err := FileHash(pair.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("hash source document: %w", err)
		}
		existingDoc, err := v.documents.ByHash(ctx, sourceHash)
		if err != nil {
			return nil, fmt.Errorf("check document dedup: %w", err)
		}
		if existingDoc != nil {
			return nil, &DuplicateError{Hash: sourceHash, Existing: "document " + existingDoc.Name}
		}

		originHash, err := FileHash(pair.OriginPath)
		if err != nil {
			return nil, fmt.Errorf("hash origin document: %w", err)
		}

		doc := types.Document{
			ID:      utils.NanoID(),
			Type:    declared.Type,
			Name:    declared.Name,
			Path:    filepath.Join(destDir, declared.Name),
			Hash:    sourceHash,
			Content: declared.Content,
		}
		if declared.Metadata != nil {
			metadata, err := json.Marshal(declared.Metadata)
			if err != nil {
				return nil, fmt.Errorf("encode document metadata: %w", err)
			}
			doc.Metadata = string(metadata)
		}
		if declared.Type == types.DocTypeFile {
			doc.OriginalName = declared.OriginalName
			doc.OriginalPath = filepath.Join(destDir, originDirName, filepath.Base(pair.OriginPath))
			doc.OriginalHash = originHash
		}

		record.Documents = append(record.Documents, doc)
		record.Moves = append(record.Moves,
			FileMove{From: pair.SourcePath, To: doc.Path},
			FileMove{From: pair.OriginPath, To: filepath.Join(destDir, originDirName, filepath.Base(pair.OriginPath))},
		)
	}

	return record, nil
}

func (v *Validator) fail(bundle *Bundle, reason string) error {
	return &ValidationError{Folder: bundle.Folder, Reason: reason}
}

// plainFileName reports whether name is a bare file name. Descriptor
// names end up joined into storage paths, so any path structure in them
// is rejected.
func plainFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Clean(name) == name
}

func pairLabel(pair DocumentPair) string {
	if pair.SourcePath != "" {
		return filepath.Base(pair.SourcePath)
	}
	return filepath.Base(pair.OriginPath)
}
