package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver.
)

// SourceError marks the legacy archive as missing or malformed. A run cannot
// continue past it.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("legacy archive %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Session is one saved analysis from the legacy archive.
type Session struct {
	SessionId   string
	ProjectName string
	Summary     string
	Data        []byte // raw JSON payload
	UpdatedAt   time.Time
}

// Revision is one uploaded revision attached to a session, numbered 1..n by
// ascending (uploaded_at, id) within its session.
type Revision struct {
	Id            int64
	SessionId     string
	Sequence      int
	RequirementId string
	Filename      string
	FilePath      string
	MimeType      string
	Note          string
	UploadedAt    time.Time
}

// Reader streams sessions out of the legacy SQLite archive. It never writes
// to the archive, and it is restartable: every EachSession call re-opens the
// file and yields the same sequence.
type Reader struct {
	path string
}

func NewReader(path string) *Reader {
	return &Reader{path: path}
}

func (r *Reader) open() (*sql.DB, error) {
	if _, err := os.Stat(r.path); err != nil {
		return nil, &SourceError{Path: r.path, Err: err}
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", r.path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &SourceError{Path: r.path, Err: err}
	}
	return db, nil
}

// EachSession calls fn once per session, in primary-key order, with that
// session's revisions grouped and ordered by sequence. An error from fn
// stops the walk and is returned as-is.
func (r *Reader) EachSession(ctx context.Context, fn func(Session, []Revision) error) error {
	db, err := r.open()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT session_id, project_name, summary, data_json, updated_at
		 FROM saved_sessions ORDER BY session_id`)
	if err != nil {
		return &SourceError{Path: r.path, Err: fmt.Errorf("read saved_sessions: %w", err)}
	}
	defer rows.Close()

	for rows.Next() {
		var s Session
		var project, summary, updated sql.NullString
		var data []byte
		if err := rows.Scan(&s.SessionId, &project, &summary, &data, &updated); err != nil {
			return &SourceError{Path: r.path, Err: fmt.Errorf("scan saved_sessions: %w", err)}
		}
		s.ProjectName = project.String
		s.Summary = summary.String
		s.Data = data
		s.UpdatedAt = parseArchiveTime(updated.String)

		revisions, err := r.revisionsFor(ctx, db, s.SessionId)
		if err != nil {
			return err
		}
		if err := fn(s, revisions); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &SourceError{Path: r.path, Err: err}
	}
	return nil
}

func (r *Reader) revisionsFor(ctx context.Context, db *sql.DB, sessionId string) ([]Revision, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, requirement_id, filename, file_path, mime_type, note, uploaded_at
		 FROM session_revisions WHERE session_id = ?
		 ORDER BY uploaded_at ASC, id ASC`, sessionId)
	if err != nil {
		return nil, &SourceError{Path: r.path, Err: fmt.Errorf("read session_revisions: %w", err)}
	}
	defer rows.Close()

	var revisions []Revision
	for rows.Next() {
		var rev Revision
		var requirement, filename, filePath, mime, note, uploaded sql.NullString
		if err := rows.Scan(&rev.Id, &requirement, &filename, &filePath, &mime, &note, &uploaded); err != nil {
			return nil, &SourceError{Path: r.path, Err: fmt.Errorf("scan session_revisions: %w", err)}
		}
		rev.SessionId = sessionId
		rev.Sequence = len(revisions) + 1
		rev.RequirementId = requirement.String
		rev.Filename = filename.String
		rev.FilePath = filePath.String
		rev.MimeType = mime.String
		rev.Note = note.String
		rev.UploadedAt = parseArchiveTime(uploaded.String)
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, &SourceError{Path: r.path, Err: err}
	}
	return revisions, nil
}

var archiveTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseArchiveTime handles the timestamp formats the legacy application
// wrote (ISO 8601 with and without zone). Unparseable values fall back to
// the migration time rather than a zero DATETIME the target may reject.
func parseArchiveTime(value string) time.Time {
	for _, layout := range archiveTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
