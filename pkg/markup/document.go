package markup

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ErrUnknownFormat is returned for files whose extension names no supported
// document form.
var ErrUnknownFormat = errors.New("unknown document format")

// Format is the serialization of a description document.
type Format uint8

const (
	// FormatXML is the classic XML form.
	FormatXML Format = iota
	// FormatYAML is the YAML form (JSON documents are parsed as YAML).
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatForPath picks the document form from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Document is a parsed description document.
type Document struct {
	Path        string
	Format      Format
	Root        *Node
	Fingerprint string
}

// Parse parses raw document bytes of the given form. YAML documents are
// validated against the embedded schema first.
func Parse(data []byte, format Format) (*Document, error) {
	doc := &Document{Format: format, Fingerprint: Fingerprint(data)}

	var err error
	switch format {
	case FormatXML:
		doc.Root, err = ParseXML(data)
	case FormatYAML:
		var v *Validator
		if v, err = DefaultValidator(); err != nil {
			return nil, err
		}
		if err = v.ValidateYAML(data); err != nil {
			return nil, err
		}
		doc.Root, err = ParseYAML(data)
	default:
		err = ErrUnknownFormat
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadFile reads and parses a description document from disk.
func LoadFile(path string) (*Document, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Fingerprint returns the hex BLAKE2b-256 digest of a document. Two files
// with identical content have the same fingerprint.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
