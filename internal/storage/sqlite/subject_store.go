package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goodtune/onlinetime/internal/database"
	"github.com/goodtune/onlinetime/internal/storage"
)

type subjectStore struct {
	db *database.DB
}

func (s *subjectStore) Get(ctx context.Context, externalID int64) (*storage.Subject, error) {
	var subject storage.Subject
	err := s.db.QueryRowContext(ctx,
		`SELECT external_id, user_id, first_name, last_name FROM subjects WHERE external_id = ?`,
		externalID,
	).Scan(&subject.ExternalID, &subject.UserID, &subject.FirstName, &subject.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return &subject, nil
}

func (s *subjectStore) List(ctx context.Context) ([]storage.Subject, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT external_id, user_id, first_name, last_name FROM subjects ORDER BY external_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	subjects := []storage.Subject{}
	for rows.Next() {
		var subject storage.Subject
		if err := rows.Scan(&subject.ExternalID, &subject.UserID, &subject.FirstName, &subject.LastName); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

func (s *subjectStore) Upsert(ctx context.Context, subject storage.Subject) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subjects (external_id, user_id, first_name, last_name, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(external_id) DO UPDATE SET
			user_id = excluded.user_id,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			updated_at = CURRENT_TIMESTAMP`,
		subject.ExternalID, subject.UserID, subject.FirstName, subject.LastName,
	)
	if err != nil {
		return fmt.Errorf("upsert subject: %w", err)
	}
	return nil
}

func (s *subjectStore) Delete(ctx context.Context, externalID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subjects WHERE external_id = ?`, externalID)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
