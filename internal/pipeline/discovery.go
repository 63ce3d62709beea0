package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// DescriptorFileName is the fixed name of the per-folder record descriptor.
const DescriptorFileName = "data.json"

// originDirName is the fixed-name subdirectory holding the undecoded
// origin-side counterparts of a folder's source documents.
const originDirName = "Source"

var primaryExtensions = map[string]bool{
	".docx": true,
	".doc":  true,
	".odt":  true,
}

var sourceExtensions = map[string]bool{
	".pdf":  true,
	".eml":  true,
	".msg":  true,
	".xlsx": true,
}

// DocumentPair is one logical attachment: the processed source-side file
// and its origin-side counterpart, matched by the numeric prefix shared in
// their file names. Index is the zero-based position in the descriptor's
// declared file list (prefix N pairs with index N-1); -1 when the file name
// carried no parsable prefix. Either side may be empty for a partial pair.
type DocumentPair struct {
	Index      int
	SourcePath string
	OriginPath string
}

// Bundle is a candidate record folder partitioned into its parts.
type Bundle struct {
	Folder         string
	DescriptorPath string
	PrimaryPath    string
	Pairs          []DocumentPair
}

// DiscoverFolders returns every distinct parent directory of a file named
// data.json, sorted for stable processing order.
func DiscoverFolders(files []string) []string {
	seen := make(map[string]bool)
	for _, file := range files {
		if filepath.Base(file) == DescriptorFileName {
			seen[filepath.Dir(file)] = true
		}
	}

	folders := make([]string, 0, len(seen))
	for folder := range seen {
		folders = append(folders, folder)
	}
	sort.Strings(folders)

	return folders
}

// Classify partitions a candidate folder's immediate children into the
// descriptor, the primary composed document, and the source/origin document
// pairs. A folder missing the descriptor, the primary, or any document at
// all fails classification; the caller skips it and moves on.
func Classify(folder string, files []string) (*Bundle, error) {
	bundle := &Bundle{Folder: folder}

	originDir := filepath.Join(folder, originDirName)
	pairsByPrefix := make(map[int]*DocumentPair)
	var unprefixed []DocumentPair
	var primaries []string

	for _, file := range files {
		dir := filepath.Dir(file)
		base := filepath.Base(file)
		ext := strings.ToLower(filepath.Ext(base))

		switch dir {
		case folder:
			switch {
			case base == DescriptorFileName:
				bundle.DescriptorPath = file
			case primaryExtensions[ext]:
				primaries = append(primaries, file)
			case sourceExtensions[ext]:
				if idx, ok := filePrefix(base); ok {
					pair := pairAt(pairsByPrefix, idx)
					pair.SourcePath = file
				} else {
					unprefixed = append(unprefixed, DocumentPair{Index: -1, SourcePath: file})
				}
			}
		case originDir:
			if idx, ok := filePrefix(base); ok {
				pair := pairAt(pairsByPrefix, idx)
				pair.OriginPath = file
			} else {
				unprefixed = append(unprefixed, DocumentPair{Index: -1, OriginPath: file})
			}
		}
	}

	if bundle.DescriptorPath == "" {
		return nil, fmt.Errorf("no %s descriptor in %s", DescriptorFileName, folder)
	}

	switch len(primaries) {
	case 0:
		return nil, fmt.Errorf("no primary document in %s", folder)
	case 1:
		bundle.PrimaryPath = primaries[0]
	default:
		return nil, fmt.Errorf("%d primary documents in %s, want exactly one", len(primaries), folder)
	}

	for _, pair := range pairsByPrefix {
		bundle.Pairs = append(bundle.Pairs, *pair)
	}
	bundle.Pairs = append(bundle.Pairs, unprefixed...)
	sort.Slice(bundle.Pairs, func(i, j int) bool {
		if bundle.Pairs[i].Index != bundle.Pairs[j].Index {
			return bundle.Pairs[i].Index < bundle.Pairs[j].Index
		}
		return bundle.Pairs[i].SourcePath < bundle.Pairs[j].SourcePath
	})

	if len(bundle.Pairs) == 0 {
		return nil, fmt.Errorf("no source or origin documents in %s", folder)
	}

	return bundle, nil
}

func pairAt(pairs map[int]*DocumentPair, prefix int) *DocumentPair {
	if _, ok := pairs[prefix]; !ok {
		pairs[prefix] = &DocumentPair{Index: prefix - 1}
	}
	return pairs[prefix]
}

// filePrefix parses the numeric prefix of a file name ("2 - mail.eml" -> 2).
func filePrefix(name string) (int, bool) {
	i := 0
	for i < len(name) && unicode.IsDigit(rune(name[i])) {
		i++
	}
	if i == 0 {
		return 0, false
	}

	prefix := 0
	for _, r := range name[:i] {
		prefix = prefix*10 + int(r-'0')
	}
	if prefix < 1 {
		return 0, false
	}

	return prefix, true
}
