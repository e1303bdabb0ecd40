package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/shebashongskar/apiserver/types"
)

// ReportEventsChannel is the broker channel report lifecycle events are
// published to.
const ReportEventsChannel = "report-events"

// ReportRepository defines persistence operations for reports.
type ReportRepository interface {
	Create(ctx context.Context, report types.Report) (types.Report, error)
	List(ctx context.Context) ([]types.Report, error)
	ListAdmin(ctx context.Context, filter types.ReportFilter) ([]types.Report, error)
	Get(ctx context.Context, id int) (types.Report, error)
	UpdateStatus(ctx context.Context, id int, status, adminNote string) error
	Delete(ctx context.Context, id int) error
}

// UserDirectory resolves user records for ownership and display lookups.
type UserDirectory interface {
	GetByID(ctx context.Context, id int) (types.User, error)
}

// ImageStore persists uploaded report images.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher emits report lifecycle events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// ImageUpload is a validated in-memory image attached to a new report.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreateReportInput carries the citizen-supplied fields of a new report.
type CreateReportInput struct {
	Text     string
	Category string
	Priority string
	Location string
	Images   []ImageUpload
}

// ReportService encapsulates the complaint lifecycle.
type ReportService struct {
	repo   ReportRepository
	users  UserDirectory
	images ImageStore
	events EventPublisher
}

func NewReportService(repo ReportRepository, users UserDirectory, images ImageStore, events EventPublisher) *ReportService {
	return &ReportService{repo: repo, users: users, images: images, events: events}
}

// Create files a new report. Images are written to object storage first and
// the report row only after every write succeeds, so a persisted report
// never references an image that failed to upload. Uploaded objects are
// removed again if the row write fails.
func (s *ReportService) Create(ctx context.Context, userID int, input CreateReportInput) (types.Report, error) {
	if !types.ValidCategory(input.Category) {
		return types.Report{}, ErrInvalidCategory
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return types.Report{}, err
	}

	keys := make([]string, 0, len(input.Images))
	for _, image := range input.Images {
		key := imageKey(image)
		if err := s.images.Put(ctx, key, bytes.NewReader(image.Data), int64(len(image.Data)), image.ContentType); err != nil {
			s.removeImages(ctx, keys)
			return types.Report{}, fmt.Errorf("upload image: %w", err)
		}
		keys = append(keys, key)
	}

	report, err := s.repo.Create(ctx, types.Report{
		UserID:   userID,
		Text:     input.Text,
		Category: input.Category,
		Images:   keys,
		Status:   types.StatusPending,
		Priority: input.Priority,
		Location: input.Location,
	})
	if err != nil {
		s.removeImages(ctx, keys)
		return types.Report{}, err
	}

	report.Owner = &types.ReportOwner{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}

	s.publish(ctx, "report.created", report)
	return report, nil
}

func (s *ReportService) List(ctx context.Context) ([]types.Report, error) {
	return s.repo.List(ctx)
}

// ListAdmin returns the admin projection, filtered by category and status.
// An absent filter value or the literal "all" means no filter.
func (s *ReportService) ListAdmin(ctx context.Context, filter types.ReportFilter) ([]types.Report, error) {
	if filter.Category == "all" {
		filter.Category = ""
	}
	if filter.Status == "all" {
		filter.Status = ""
	}
	return s.repo.ListAdmin(ctx, filter)
}

func (s *ReportService) Get(ctx context.Context, id int) (types.Report, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus sets the report status and overwrites the admin note; an
// omitted note clears any previous one. Role enforcement happens at the
// HTTP layer, vocabulary enforcement here.
func (s *ReportService) UpdateStatus(ctx context.Context, id int, status, adminNote string) (types.Report, error) {
	if !types.ValidStatus(status) {
		return types.Report{}, ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, id, status, adminNote); err != nil {
		return types.Report{}, err
	}

	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Report{}, err
	}

	s.publish(ctx, "report.status_changed", report)
	return report, nil
}

// Delete removes a report. Only the owner or an admin may delete; stored
// image objects are cleaned up best-effort afterwards.
func (s *ReportService) Delete(ctx context.Context, caller types.User, id int) error {
	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if report.UserID != caller.ID && caller.Role != types.RoleAdmin {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.removeImages(ctx, report.Images)
	return nil
}

func (s *ReportService) removeImages(ctx context.Context, keys []string) {
	if s.images == nil {
		return
	}
	for _, key := range keys {
		_ = s.images.Delete(ctx, key)
	}
}

type reportEvent struct {
	Type     string    `json:"type"`
	ReportID int       `json:"reportId"`
	UserID   int       `json:"userId"`
	Category string    `json:"category"`
	Status   string    `json:"status"`
	At       time.Time `json:"at"`
}

// publish emits a lifecycle event fire-and-forget; a broker outage never
// fails the request.
func (s *ReportService) publish(ctx context.Context, eventType string, report types.Report) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(reportEvent{
		Type:     eventType,
		ReportID: report.ID,
		UserID:   report.UserID,
		Category: report.Category,
		Status:   report.Status,
		At:       time.Now(),
	})
	if err != nil {
		return
	}
	_, _ = s.events.Publish(ctx, ReportEventsChannel, payload, map[string]string{"type": eventType})
}

func imageKey(image ImageUpload) string {
	ext := path.Ext(image.Filename)
	if ext == "" {
		if exts, err := mime.ExtensionsByType(image.ContentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return "reports/" + uuid.NewString() + ext
}
