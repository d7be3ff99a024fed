package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedInput     = errors.New("malformed input")
	ErrFieldExtraction    = errors.New("field extraction failed")
	ErrEnrichmentMiss     = errors.New("enrichment miss")
	ErrDuplicateRecord    = errors.New("duplicate record")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrTagContainer       = errors.New("tag container error")
)

// ErrorClassifier is implemented by every typed error in the taxonomy.
type ErrorClassifier interface {
	ErrorKind() string
}

// MalformedInputError reports a probe result that cannot be classified because
// it does not carry exactly one General track.
type MalformedInputError struct {
	GeneralCount int
}

func (e *MalformedInputError) Error() string {
	if e.GeneralCount == 0 {
		return "malformed input: no General track found"
	}
	return fmt.Sprintf("malformed input: %d General tracks found, expected exactly one", e.GeneralCount)
}

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

func (e *MalformedInputError) ErrorKind() string { return "malformed_input" }

// FieldExtractionError reports a single optional stream field that could not be
// parsed. The field is omitted; the stream record is still produced.
type FieldExtractionError struct {
	Stream string
	Field  string
	Value  any
	Err    error
}

func (e *FieldExtractionError) Error() string {
	return fmt.Sprintf("%s stream: field %s: cannot parse %q: %v", e.Stream, e.Field, fmt.Sprint(e.Value), e.Err)
}

func (e *FieldExtractionError) Unwrap() error { return e.Err }

func (e *FieldExtractionError) Is(target error) bool { return target == ErrFieldExtraction }

func (e *FieldExtractionError) ErrorKind() string { return "field_extraction" }

// EnrichmentMissError reports that no usable metadata candidate was found.
type EnrichmentMissError struct {
	Queries []string
	Reason  string
	Err     error
}

func (e *EnrichmentMissError) Error() string {
	detail := strings.TrimSpace(e.Reason)
	if detail == "" {
		detail = "no usable candidate"
	}
	msg := fmt.Sprintf("enrichment miss: %s (queries: %s)", detail, strings.Join(e.Queries, " | "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EnrichmentMissError) Unwrap() error { return e.Err }

func (e *EnrichmentMissError) Is(target error) bool { return target == ErrEnrichmentMiss }

func (e *EnrichmentMissError) ErrorKind() string { return "enrichment_miss" }

// DuplicateRecordError reports more than one stored record for a single path.
type DuplicateRecordError struct {
	Kind     string
	Dirname  string
	Filename string
	Count    int
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("duplicate record: found %d existing %s records for %s", e.Count, e.Kind, joinPath(e.Dirname, e.Filename))
}

func (e *DuplicateRecordError) Is(target error) bool { return target == ErrDuplicateRecord }

func (e *DuplicateRecordError) ErrorKind() string { return "duplicate_record" }

// StorageUnavailableError wraps a failed storage operation.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %s: %v", e.Op, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

func (e *StorageUnavailableError) Is(target error) bool { return target == ErrStorageUnavailable }

func (e *StorageUnavailableError) ErrorKind() string { return "storage_unavailable" }

// TagContainerError reports embedded tag data that exists but cannot be read.
type TagContainerError struct {
	Path string
	Err  error
}

func (e *TagContainerError) Error() string {
	return fmt.Sprintf("tag container %s: %v", e.Path, e.Err)
}

func (e *TagContainerError) Unwrap() error { return e.Err }

func (e *TagContainerError) Is(target error) bool { return target == ErrTagContainer }

func (e *TagContainerError) ErrorKind() string { return "tag_container" }

// Storage wraps err as a StorageUnavailableError unless it already is one.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return &StorageUnavailableError{Op: op, Err: err}
}

// ItemFatal reports whether err aborts processing of the current item. Field
// and enrichment level errors never do.
func ItemFatal(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrFieldExtraction), errors.Is(err, ErrEnrichmentMiss), errors.Is(err, ErrTagContainer):
		return false
	default:
		return true
	}
}

// Kind returns the taxonomy label for err, or "error" when it is unclassified.
func Kind(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return "error"
}

func joinPath(dirname, filename string) string {
	switch {
	case dirname == "":
		return filename
	case filename == "":
		return dirname
	default:
		return strings.TrimRight(dirname, "/") + "/" + strings.TrimLeft(filename, "/")
	}
}
