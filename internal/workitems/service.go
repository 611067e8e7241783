package workitems

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/extract"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/storage/object"
)

// Service contains business logic for work items and their stored artifacts.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
}

// Upload stores the file and creates a pending work item for it.
func (s *Service) Upload(ctx context.Context, userID, fileName, workloadID string, r io.Reader) (WorkItem, error) {
	if userID == "" || fileName == "" {
		return WorkItem{}, ErrInvalidInput
	}

	storageKey, _, mimeType, err := s.Store.Save(ctx, userID, fileName, r)
	if err != nil {
		return WorkItem{}, err
	}

	now := time.Now().UTC()
	item := WorkItem{
		ID:             uuid.NewString(),
		UserID:         userID,
		FileName:       fileName,
		FileType:       mimeType,
		StorageKey:     storageKey,
		WorkloadID:     workloadID,
		AnalysisStatus: StatusPending,
		IaCStatus:      StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, item); err != nil {
		return WorkItem{}, err
	}
	return item, nil
}

// Get returns a work item scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, id string) (WorkItem, error) {
	if userID == "" || id == "" {
		return WorkItem{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, id)
}

// List returns the user's work items, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]WorkItem, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID)
}

// Update applies a partial mutation to a work item.
func (s *Service) Update(ctx context.Context, userID, id string, update Update) error {
	return s.Repo.Update(ctx, userID, id, update)
}

// Content is the loaded original document of a work item. Images are packaged
// as data:<mediaType>;base64,<payload> URIs; text documents as raw UTF-8.
type Content struct {
	Data        string
	ContentType string
	IsImage     bool
}

// OriginalContent loads the stored document. With raw set, the bytes are
// returned as-is regardless of type; otherwise images become data URIs and
// PDFs are reduced to their extracted text.
func (s *Service) OriginalContent(ctx context.Context, userID, id string, raw bool) (Content, error) {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return Content{}, err
	}

	body, err := s.Store.Open(ctx, item.StorageKey)
	if err != nil {
		return Content{}, fmt.Errorf("open work item content key=%s: %w", item.StorageKey, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return Content{}, fmt.Errorf("read work item content key=%s: %w", item.StorageKey, err)
	}

	if raw {
		return Content{Data: string(data), ContentType: item.FileType, IsImage: item.IsImage()}, nil
	}

	switch {
	case item.IsImage():
		uri := fmt.Sprintf("data:%s;base64,%s", item.FileType, base64.StdEncoding.EncodeToString(data))
		return Content{Data: uri, ContentType: item.FileType, IsImage: true}, nil
	case item.FileType == "application/pdf":
		text, err := extract.TextFromBytes(ctx, data, item.FileType, item.FileName)
		if err != nil {
			return Content{}, err
		}
		return Content{Data: text, ContentType: "text/plain"}, nil
	default:
		return Content{Data: string(data), ContentType: item.FileType}, nil
	}
}

// StoreAnalysisResults persists the accumulated analysis results next to the
// original document and flips the results flag.
func (s *Service) StoreAnalysisResults(ctx context.Context, userID, id string, results any) error {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal analysis results: %w", err)
	}
	if _, err := s.Store.SaveWithKey(ctx, resultsKey(item), "application/json", bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("store analysis results: %w", err)
	}
	return s.Repo.Update(ctx, userID, id, Update{HasAnalysisResults: Ptr(true)})
}

// AnalysisResults loads the stored analysis result payload.
func (s *Service) AnalysisResults(ctx context.Context, userID, id string) (json.RawMessage, error) {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !item.HasAnalysisResults {
		return nil, ErrNotFound
	}

	body, err := s.Store.Open(ctx, resultsKey(item))
	if err != nil {
		return nil, fmt.Errorf("open analysis results: %w", err)
	}
	defer body.Close()
	return io.ReadAll(body)
}

// StoreIaCDocument persists generated IaC content under a derived extension
// and records the template type on the work item.
func (s *Service) StoreIaCDocument(ctx context.Context, userID, id, content, extension, templateType string) error {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	key := iacKey(item, extension)
	if _, err := s.Store.SaveWithKey(ctx, key, "text/plain", strings.NewReader(content)); err != nil {
		return fmt.Errorf("store iac document: %w", err)
	}
	return s.Repo.Update(ctx, userID, id, Update{
		HasIaCDocument: Ptr(true),
		IaCExtension:   Ptr(extension),
		TemplateType:   Ptr(templateType),
	})
}

// IaCDocument loads the generated IaC content and its extension.
func (s *Service) IaCDocument(ctx context.Context, userID, id string) (string, string, error) {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", "", err
	}
	if !item.HasIaCDocument || item.IaCExtension == "" {
		return "", "", ErrNotFound
	}

	body, err := s.Store.Open(ctx, iacKey(item, item.IaCExtension))
	if err != nil {
		return "", "", fmt.Errorf("open iac document: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", "", err
	}
	return string(data), item.IaCExtension, nil
}

// DeriveExtension maps a template type to the generated file extension.
func DeriveExtension(templateType string) string {
	lowered := strings.ToLower(templateType)
	switch {
	case strings.Contains(lowered, "yaml"):
		return "yaml"
	case strings.Contains(lowered, "json"):
		return "json"
	default:
		return "tf"
	}
}

func resultsKey(item WorkItem) string {
	return item.StorageKey + ".analysis.json"
}

func iacKey(item WorkItem, extension string) string {
	return item.StorageKey + ".iac." + extension
}
