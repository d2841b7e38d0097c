package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ParseError records a single malformed knowledge file. The reader skips the
// file and keeps going; one bad file never aborts a migration.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("knowledge file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Resource is one knowledge base document parsed from its JSON source file.
// Name is the file stem and doubles as the idempotency key in the target.
type Resource struct {
	Name       string
	Title      string
	Category   string
	Payload    json.RawMessage
	SourcePath string
}

// Reader enumerates the *.json files of a knowledge base directory in
// lexicographic order, so re-runs see an identical sequence.
type Reader struct {
	baseDir  string
	failures []*ParseError
}

func NewReader(baseDir string) *Reader {
	return &Reader{baseDir: baseDir}
}

// Each calls fn once per parseable file. Malformed files are recorded (see
// Failures) and skipped. An error from fn stops the walk.
func (r *Reader) Each(ctx context.Context, fn func(Resource) error) error {
	r.failures = nil

	entries, err := os.ReadDir(r.baseDir)
	if err != nil {
		return fmt.Errorf("knowledge base %s: %w", r.baseDir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		resource, perr := r.parseFile(filepath.Join(r.baseDir, name))
		if perr != nil {
			r.failures = append(r.failures, perr)
			continue
		}
		if err := fn(resource); err != nil {
			return err
		}
	}
	return nil
}

// Failures lists the files the last Each call skipped.
func (r *Reader) Failures() []*ParseError {
	return r.failures
}

func (r *Reader) parseFile(path string) (Resource, *ParseError) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Resource{}, &ParseError{Path: path, Err: err}
	}
	if !json.Valid(raw) {
		return Resource{}, &ParseError{Path: path, Err: errors.New("invalid JSON")}
	}

	resource := Resource{
		Name:       strings.TrimSuffix(filepath.Base(path), ".json"),
		Payload:    raw,
		SourcePath: path,
	}

	// Optional envelope fields when the payload is a JSON object.
	var head struct {
		Title    string `json:"title"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal(raw, &head); err == nil {
		resource.Title = head.Title
		resource.Category = head.Category
	}
	if resource.Title == "" {
		resource.Title = resource.Name
	}
	return resource, nil
}
