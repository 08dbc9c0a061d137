package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cenvi-org/geodash/engine"
)

// ============================================================================
// INGESTION — Uploaded File → Dataset
// ============================================================================
// Parsing is format-specific (CSV vs workbook) but the output contract is
// uniform: an ordered slice of homogeneous-keyed rows plus the discovered
// column set. Ingestion either succeeds wholesale or fails with a typed
// Error — a partial dataset is never exposed.
// ============================================================================

// Kind classifies an ingestion failure.
type Kind string

const (
	KindEmptyFile  Kind = "empty_file"
	KindUnparsable Kind = "unparsable_format"
	KindNoHeader   Kind = "no_header_row"
)

// Error is an ingestion failure surfaced to the user before any dataset
// state changes.
type Error struct {
	Kind   Kind
	Source string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("ingest %s: %s", e.Source, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an ingestion Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Kind == kind
}

func failf(source string, kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Source: source, Err: fmt.Errorf(format, args...)}
}

// File parses an uploaded file blob by extension. CSV and XLSX workbooks
// are supported; anything else is an unparsable format.
func File(name string, data []byte) (*engine.Dataset, error) {
	if len(data) == 0 {
		return nil, &Error{Kind: KindEmptyFile, Source: name}
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return CSV(name, data)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return XLSX(name, data)
	default:
		return nil, failf(name, KindUnparsable, "unsupported file type %q", filepath.Ext(name))
	}
}
