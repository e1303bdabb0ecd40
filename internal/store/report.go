package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/shebashongskar/apiserver/types"
)

// ReportRepository handles persistence for reports.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, report types.Report) (types.Report, error) {
	now := time.Now()
	report.CreatedAt = now
	report.UpdatedAt = now

	imagesJSON, err := json.Marshal(report.Images)
	if err != nil {
		return types.Report{}, err
	}

	const query = `
		INSERT INTO reports (user_id, text, category, images, status, admin_note, priority, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		report.UserID,
		report.Text,
		report.Category,
		imagesJSON,
		report.Status,
		report.AdminNote,
		report.Priority,
		report.Location,
		report.CreatedAt,
		report.UpdatedAt,
	).Scan(&report.ID); err != nil {
		return types.Report{}, err
	}
	return report, nil
}

// List returns all reports newest-first, joined with the owner's name.
// The citizen-facing projection never carries owner contact details.
func (r *ReportRepository) List(ctx context.Context) ([]types.Report, error) {
	const query = `
		SELECT r.id, r.user_id, r.text, r.category, r.images, r.status, r.admin_note,
			r.priority, r.location, r.created_at, r.updated_at,
			u.first_name, u.last_name
		FROM reports r
		JOIN users u ON u.id = r.user_id
		ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReports(rows, false)
}

// ListAdmin returns all reports newest-first with owner contact details,
// optionally filtered by category and status.
func (r *ReportRepository) ListAdmin(ctx context.Context, filter types.ReportFilter) ([]types.Report, error) {
	query := `
		SELECT r.id, r.user_id, r.text, r.category, r.images, r.status, r.admin_note,
			r.priority, r.location, r.created_at, r.updated_at,
			u.first_name, u.last_name, u.email, u.phone, u.present_address
		FROM reports r
		JOIN users u ON u.id = r.user_id`

	var args []any
	var conditions []string
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, "r.category = $1")
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		if len(args) == 1 {
			conditions = append(conditions, "r.status = $1")
		} else {
			conditions = append(conditions, "r.status = $2")
		}
	}
	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + conditions[0]
		if len(conditions) > 1 {
			query += " AND " + conditions[1]
		}
	}
	query += "\n\t\tORDER BY r.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReports(rows, true)
}

func (r *ReportRepository) Get(ctx context.Context, id int) (types.Report, error) {
	const query = `
		SELECT r.id, r.user_id, r.text, r.category, r.images, r.status, r.admin_note,
			r.priority, r.location, r.created_at, r.updated_at,
			u.first_name, u.last_name
		FROM reports r
		JOIN users u ON u.id = r.user_id
		WHERE r.id = $1`
	var report types.Report
	var imagesJSON []byte
	owner := &types.ReportOwner{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID,
		&report.UserID,
		&report.Text,
		&report.Category,
		&imagesJSON,
		&report.Status,
		&report.AdminNote,
		&report.Priority,
		&report.Location,
		&report.CreatedAt,
		&report.UpdatedAt,
		&owner.FirstName,
		&owner.LastName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Report{}, ErrNotFound
		}
		return types.Report{}, err
	}

	_ = json.Unmarshal(imagesJSON, &report.Images)
	owner.ID = report.UserID
	report.Owner = owner
	return report, nil
}

// UpdateStatus overwrites the status and the admin note together.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id int, status, adminNote string) error {
	const query = `
		UPDATE reports
		SET status = $1,
			admin_note = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, adminNote, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReportRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM reports WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReports(rows *sql.Rows, withContact bool) ([]types.Report, error) {
	reports := make([]types.Report, 0)
	for rows.Next() {
		var report types.Report
		var imagesJSON []byte
		owner := &types.ReportOwner{}

		dest := []any{
			&report.ID,
			&report.UserID,
			&report.Text,
			&report.Category,
			&imagesJSON,
			&report.Status,
			&report.AdminNote,
			&report.Priority,
			&report.Location,
			&report.CreatedAt,
			&report.UpdatedAt,
			&owner.FirstName,
			&owner.LastName,
		}
		if withContact {
			dest = append(dest, &owner.Email, &owner.Phone, &owner.Address)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		_ = json.Unmarshal(imagesJSON, &report.Images)
		owner.ID = report.UserID
		report.Owner = owner
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}
