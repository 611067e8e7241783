package workitems

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	item := WorkItem{
		ID:             "item-1",
		UserID:         "user-1",
		FileName:       "arch.png",
		FileType:       "image/png",
		StorageKey:     "abc/arch.png",
		WorkloadID:     "wl-1",
		AnalysisStatus: StatusPending,
		IaCStatus:      StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	mock.ExpectExec("INSERT INTO work_items").
		WithArgs(
			item.ID,
			item.UserID,
			item.FileName,
			item.FileType,
			item.StorageKey,
			item.WorkloadID,
			item.AnalysisStatus,
			0,
			"",
			item.IaCStatus,
			0,
			"",
			false,
			false,
			"",
			"",
			item.CreatedAt,
			item.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), item); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func workItemRows(items ...WorkItem) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "file_name", "file_type", "storage_key", "workload_id",
		"analysis_status", "analysis_progress", "analysis_error",
		"iac_status", "iac_progress", "iac_error",
		"has_analysis_results", "has_iac_document", "iac_extension", "template_type",
		"created_at", "updated_at",
	})
	for _, item := range items {
		rows.AddRow(
			item.ID, item.UserID, item.FileName, item.FileType, item.StorageKey, item.WorkloadID,
			item.AnalysisStatus, item.AnalysisProgress, item.AnalysisError,
			item.IaCStatus, item.IaCProgress, item.IaCError,
			item.HasAnalysisResults, item.HasIaCDocument, item.IaCExtension, item.TemplateType,
			item.CreatedAt, item.UpdatedAt,
		)
	}
	return rows
}

func TestPGRepoGetByIDScopesToOwner(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	stored := WorkItem{
		ID:               "item-1",
		UserID:           "user-1",
		FileName:         "stack.yaml",
		FileType:         "text/plain",
		StorageKey:       "abc/stack.yaml",
		AnalysisStatus:   StatusCompleted,
		AnalysisProgress: 100,
		IaCStatus:        StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	mock.ExpectQuery("SELECT (.+) FROM work_items WHERE id = \\$1 AND user_id = \\$2").
		WithArgs("item-1", "user-1").
		WillReturnRows(workItemRows(stored))

	item, err := repo.GetByID(context.Background(), "user-1", "item-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.AnalysisStatus != StatusCompleted || item.AnalysisProgress != 100 {
		t.Fatalf("unexpected item: %+v", item)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM work_items").
		WithArgs("missing", "user-1").
		WillReturnRows(workItemRows())

	if _, err := repo.GetByID(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateSetsOnlyProvidedColumns(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE work_items SET analysis_status = \$1, analysis_progress = \$2, updated_at = \$3 WHERE id = \$4 AND user_id = \$5`).
		WithArgs(StatusPartial, 50, sqlmock.AnyArg(), "item-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "user-1", "item-1", Update{
		AnalysisStatus:   Ptr(StatusPartial),
		AnalysisProgress: Ptr(50),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateEmptyIsNoOp(t *testing.T) {
	repo, mock := newMockRepo(t)

	if err := repo.Update(context.Background(), "user-1", "item-1", Update{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE work_items SET").
		WithArgs(StatusCompleted, sqlmock.AnyArg(), "item-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "user-2", "item-1", Update{
		AnalysisStatus: Ptr(StatusCompleted),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListByUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	a := WorkItem{ID: "item-1", UserID: "user-1", FileName: "a.png", FileType: "image/png", StorageKey: "k1", AnalysisStatus: StatusPending, IaCStatus: StatusPending, CreatedAt: now, UpdatedAt: now}
	b := WorkItem{ID: "item-2", UserID: "user-1", FileName: "b.yaml", FileType: "text/plain", StorageKey: "k2", AnalysisStatus: StatusCompleted, IaCStatus: StatusPending, CreatedAt: now.Add(-time.Hour), UpdatedAt: now}

	mock.ExpectQuery("SELECT (.+) FROM work_items WHERE user_id = \\$1 ORDER BY created_at DESC").
		WithArgs("user-1").
		WillReturnRows(workItemRows(a, b))

	items, err := repo.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(items) != 2 || items[0].ID != "item-1" {
		t.Fatalf("unexpected items: %+v", items)
	}
}
