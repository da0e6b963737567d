package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
)

// SQLiteSubmissionRepo implements SubmissionRepo using a SQLite database.
// File URLs are stored as a JSON array.
type SQLiteSubmissionRepo struct {
	db db.DBTX
}

func NewSQLiteSubmissionRepo(db db.DBTX) *SQLiteSubmissionRepo {
	return &SQLiteSubmissionRepo{db: db}
}

const submissionColumns = `id, pin_id, student_profile_id, files, comment, submitted_at`

func (r *SQLiteSubmissionRepo) Create(ctx context.Context, s *domain.Submission) error {
	files := s.Files
	if files == nil {
		files = []string{}
	}
	encoded, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("encoding submission files: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO submissions (`+submissionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.PinID, s.StudentProfileID, string(encoded), s.Comment, formatTime(s.SubmittedAt))
	if err != nil {
		return fmt.Errorf("inserting submission: %w", err)
	}
	return nil
}

func (r *SQLiteSubmissionRepo) Latest(ctx context.Context, pinID, studentProfileID string) (*domain.Submission, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions
		WHERE pin_id = ? AND student_profile_id = ?
		ORDER BY submitted_at DESC, rowid DESC LIMIT 1`, pinID, studentProfileID)
	s, err := scanSubmission(row)
	if err != nil {
		return nil, notFound(err, "submission", pinID+"/"+studentProfileID)
	}
	return s, nil
}

// List returns submissions oldest first.
func (r *SQLiteSubmissionRepo) List(ctx context.Context, pinID, studentProfileID string) ([]*domain.Submission, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+submissionColumns+` FROM submissions
		WHERE pin_id = ? AND student_profile_id = ?
		ORDER BY submitted_at, rowid`, pinID, studentProfileID)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning submission row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating submissions: %w", err)
	}
	return out, nil
}

func scanSubmission(sc scanner) (*domain.Submission, error) {
	var s domain.Submission
	var files, submittedAt string
	if err := sc.Scan(&s.ID, &s.PinID, &s.StudentProfileID, &files, &s.Comment, &submittedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(files), &s.Files); err != nil {
		return nil, fmt.Errorf("decoding submission files: %w", err)
	}
	var err error
	if s.SubmittedAt, err = parseTime("submitted_at", submittedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
