package report

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Insert(ctx context.Context, rep *Report) error {
	query := `
		INSERT INTO reports (id, excerpt, language, scam_type, confidence)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, rep.ID, rep.Excerpt, rep.Language, rep.ScamType, rep.Confidence)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Report, error) {
	query := `
		SELECT id, excerpt, language, scam_type, confidence, created_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.Excerpt, &rep.Language, &rep.ScamType, &rep.Confidence, &rep.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
