package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Mutter0815/TripIntake/internal/intake"
)

var ErrNotFound = errors.New("submission not found")

type Store struct {
	DB *sqlx.DB
}

func New(db *sqlx.DB) *Store { return &Store{DB: db} }

const submissionColumns = `id::text AS id, name, email, destinations,
	start_date::text AS start_date, end_date::text AS end_date, notes, created_at`

// InsertSubmission stores one row and returns it with the server-assigned id and created_at.
func (s *Store) InsertSubmission(ctx context.Context, req intake.SubmissionRequest) (intake.SubmissionRecord, error) {
	var rec intake.SubmissionRecord
	err := s.DB.QueryRowxContext(ctx, `
		INSERT INTO submissions (name, email, destinations, start_date, end_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+submissionColumns,
		req.Name, req.Email, req.Destinations, req.StartDate, req.EndDate, req.Notes,
	).StructScan(&rec)
	if err != nil {
		return intake.SubmissionRecord{}, fmt.Errorf("inserting submission: %w", err)
	}
	return rec, nil
}

func (s *Store) GetSubmission(ctx context.Context, id string) (intake.SubmissionRecord, error) {
	var rec intake.SubmissionRecord
	err := s.DB.GetContext(ctx, &rec, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE id::text = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return intake.SubmissionRecord{}, ErrNotFound
	}
	if err != nil {
		return intake.SubmissionRecord{}, fmt.Errorf("getting submission %s: %w", id, err)
	}
	return rec, nil
}

func (s *Store) ListSubmissions(ctx context.Context, limit, offset int) ([]intake.SubmissionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	out := []intake.SubmissionRecord{}
	err := s.DB.SelectContext(ctx, &out, `
		SELECT `+submissionColumns+`
		FROM submissions
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
