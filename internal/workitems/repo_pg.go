package workitems

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const workItemColumns = `
id, user_id, file_name, file_type, storage_key, workload_id,
analysis_status, analysis_progress, analysis_error,
iac_status, iac_progress, iac_error,
has_analysis_results, has_iac_document, iac_extension, template_type,
created_at, updated_at`

// Create inserts a new work item.
func (r *PGRepo) Create(ctx context.Context, item WorkItem) error {
	const query = `
INSERT INTO work_items (
	id, user_id, file_name, file_type, storage_key, workload_id,
	analysis_status, analysis_progress, analysis_error,
	iac_status, iac_progress, iac_error,
	has_analysis_results, has_iac_document, iac_extension, template_type,
	created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.DB.ExecContext(ctx, query,
		item.ID,
		item.UserID,
		item.FileName,
		item.FileType,
		item.StorageKey,
		item.WorkloadID,
		item.AnalysisStatus,
		item.AnalysisProgress,
		item.AnalysisError,
		item.IaCStatus,
		item.IaCProgress,
		item.IaCError,
		item.HasAnalysisResults,
		item.HasIaCDocument,
		item.IaCExtension,
		item.TemplateType,
		item.CreatedAt,
		item.UpdatedAt,
	)
	return err
}

// GetByID returns a work item scoped to its owner.
func (r *PGRepo) GetByID(ctx context.Context, userID, id string) (WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE id = $1 AND user_id = $2 LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, id, userID)
	item, err := scanWorkItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return WorkItem{}, ErrNotFound
	}
	return item, err
}

// ListByUser returns the user's work items, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Update applies a partial mutation; nil fields keep their stored value.
func (r *PGRepo) Update(ctx context.Context, userID, id string, update Update) error {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.WorkloadID != nil {
		add("workload_id", *update.WorkloadID)
	}
	if update.AnalysisStatus != nil {
		add("analysis_status", *update.AnalysisStatus)
	}
	if update.AnalysisProgress != nil {
		add("analysis_progress", *update.AnalysisProgress)
	}
	if update.AnalysisError != nil {
		add("analysis_error", *update.AnalysisError)
	}
	if update.IaCStatus != nil {
		add("iac_status", *update.IaCStatus)
	}
	if update.IaCProgress != nil {
		add("iac_progress", *update.IaCProgress)
	}
	if update.IaCError != nil {
		add("iac_error", *update.IaCError)
	}
	if update.HasAnalysisResults != nil {
		add("has_analysis_results", *update.HasAnalysisResults)
	}
	if update.HasIaCDocument != nil {
		add("has_iac_document", *update.HasIaCDocument)
	}
	if update.IaCExtension != nil {
		add("iac_extension", *update.IaCExtension)
	}
	if update.TemplateType != nil {
		add("template_type", *update.TemplateType)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id, userID)
	query := fmt.Sprintf(
		"UPDATE work_items SET %s WHERE id = $%d AND user_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	result, err := r.DB.ExecContext(ctx, query, args...)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkItem(row rowScanner) (WorkItem, error) {
	var (
		item         WorkItem
		workloadID   sql.NullString
		analysisErr  sql.NullString
		iacErr       sql.NullString
		iacExtension sql.NullString
		templateType sql.NullString
	)
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.FileName,
		&item.FileType,
		&item.StorageKey,
		&workloadID,
		&item.AnalysisStatus,
		&item.AnalysisProgress,
		&analysisErr,
		&item.IaCStatus,
		&item.IaCProgress,
		&iacErr,
		&item.HasAnalysisResults,
		&item.HasIaCDocument,
		&iacExtension,
		&templateType,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return WorkItem{}, err
	}
	item.WorkloadID = workloadID.String
	item.AnalysisError = analysisErr.String
	item.IaCError = iacErr.String
	item.IaCExtension = iacExtension.String
	item.TemplateType = templateType.String
	return item, nil
}

var _ Repo = (*PGRepo)(nil)
