package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/auditor"
	"github.com/valpere/lexpure/internal/script"
)

// PutFragment inserts or overwrites a fragment and returns its id. A new id
// is assigned when f.ID is empty.
func (s *Store) PutFragment(ctx context.Context, f auditor.Fragment) (string, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO fragments (id, language, content_type, text, updated_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Language.String(), f.ContentType.String(), f.Text, s.now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("failed to save fragment: %w", err)
	}
	return f.ID, nil
}

// Fragments implements auditor.Store. An empty lang returns every fragment.
func (s *Store) Fragments(ctx context.Context, lang script.Language) ([]auditor.Fragment, error) {
	query := `SELECT id, language, content_type, text FROM fragments`
	var args []interface{}
	if lang != "" {
		query += ` WHERE language = ?`
		args = append(args, lang.String())
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fragments []auditor.Fragment
	for rows.Next() {
		var (
			f                  auditor.Fragment
			language, typeName string
		)
		if err := rows.Scan(&f.ID, &language, &typeName, &f.Text); err != nil {
			return nil, err
		}
		f.Language = script.Language(language)
		ct, err := internal.ParseContentType(typeName)
		if err != nil {
			return nil, fmt.Errorf("fragment %s: %w", f.ID, err)
		}
		f.ContentType = ct
		fragments = append(fragments, f)
	}
	return fragments, rows.Err()
}

// Replace implements auditor.Store as a compare-and-swap on the text column.
func (s *Store) Replace(ctx context.Context, id, oldText, newText string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE fragments SET text = ?, updated_at = ? WHERE id = ? AND text = ?`,
		newText, s.now().UnixMilli(), id, oldText)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteFragment removes a fragment by id.
func (s *Store) DeleteFragment(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fragments WHERE id = ?`, id)
	return err
}

var _ auditor.Store = (*Store)(nil)
