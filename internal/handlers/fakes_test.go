package handlers

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"github.com/shebashongskar/apiserver/internal/store"
	"github.com/shebashongskar/apiserver/types"
)

// In-memory repository fakes implementing the services' repository
// interfaces, so handler tests drive the real routers end to end.

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User), nextID: 1}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) GetByNID(_ context.Context, nid string) (types.User, error) {
	for _, user := range r.users {
		if user.NID == nid {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, user types.User) (types.User, error) {
	stored, ok := r.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	stored.Phone = user.Phone
	stored.AltPhone = user.AltPhone
	stored.PresentAddress = user.PresentAddress
	stored.PermanentAddress = user.PermanentAddress
	stored.UpdatedAt = time.Now()
	r.users[user.ID] = stored
	return stored, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id int, at time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.LastLoginAt = &at
	r.users[id] = user
	return nil
}

type fakeReportRepo struct {
	users     *fakeUserRepo
	reports   map[int]types.Report
	nextID    int
	createErr error
}

func newFakeReportRepo(users *fakeUserRepo) *fakeReportRepo {
	return &fakeReportRepo{users: users, reports: make(map[int]types.Report), nextID: 1}
}

func (r *fakeReportRepo) Create(_ context.Context, report types.Report) (types.Report, error) {
	if r.createErr != nil {
		return types.Report{}, r.createErr
	}
	report.ID = r.nextID
	r.nextID++
	report.CreatedAt = time.Now().Add(time.Duration(report.ID) * time.Millisecond)
	report.UpdatedAt = report.CreatedAt
	r.reports[report.ID] = report
	return report, nil
}

func (r *fakeReportRepo) List(_ context.Context) ([]types.Report, error) {
	return r.list(types.ReportFilter{}, false), nil
}

func (r *fakeReportRepo) ListAdmin(_ context.Context, filter types.ReportFilter) ([]types.Report, error) {
	return r.list(filter, true), nil
}

func (r *fakeReportRepo) Get(_ context.Context, id int) (types.Report, error) {
	report, ok := r.reports[id]
	if !ok {
		return types.Report{}, store.ErrNotFound
	}
	report.Owner = r.owner(report.UserID, false)
	return report, nil
}

func (r *fakeReportRepo) UpdateStatus(_ context.Context, id int, status, adminNote string) error {
	report, ok := r.reports[id]
	if !ok {
		return store.ErrNotFound
	}
	report.Status = status
	report.AdminNote = adminNote
	report.UpdatedAt = time.Now()
	r.reports[id] = report
	return nil
}

func (r *fakeReportRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.reports[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.reports, id)
	return nil
}

func (r *fakeReportRepo) list(filter types.ReportFilter, withContact bool) []types.Report {
	reports := make([]types.Report, 0, len(r.reports))
	for _, report := range r.reports {
		if filter.Category != "" && report.Category != filter.Category {
			continue
		}
		if filter.Status != "" && report.Status != filter.Status {
			continue
		}
		report.Owner = r.owner(report.UserID, withContact)
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports
}

func (r *fakeReportRepo) owner(userID int, withContact bool) *types.ReportOwner {
	user, ok := r.users.users[userID]
	if !ok {
		return nil
	}
	owner := &types.ReportOwner{ID: user.ID, FirstName: user.FirstName, LastName: user.LastName}
	if withContact {
		owner.Email = user.Email
		owner.Phone = user.Phone
		owner.Address = user.PresentAddress
	}
	return owner
}

type fakeMessageRepo struct {
	users    *fakeUserRepo
	messages map[int]types.Message
	receipts map[int][]types.ReadReceipt
	nextID   int
}

func newFakeMessageRepo(users *fakeUserRepo) *fakeMessageRepo {
	return &fakeMessageRepo{
		users:    users,
		messages: make(map[int]types.Message),
		receipts: make(map[int][]types.ReadReceipt),
	}
}

func (r *fakeMessageRepo) Create(_ context.Context, message types.Message) (types.Message, error) {
	r.nextID++
	message.ID = r.nextID
	message.CreatedAt = time.Now().Add(time.Duration(message.ID) * time.Millisecond)
	message.UpdatedAt = message.CreatedAt
	r.messages[message.ID] = message
	return message, nil
}

func (r *fakeMessageRepo) List(_ context.Context) ([]types.Message, error) {
	messages := make([]types.Message, 0, len(r.messages))
	for _, message := range r.messages {
		if user, ok := r.users.users[message.SenderID]; ok {
			message.Sender = &types.MessageSender{
				ID:        user.ID,
				FirstName: user.FirstName,
				LastName:  user.LastName,
				Role:      user.Role,
			}
		}
		if message.ReplyToID != nil {
			if target, ok := r.messages[*message.ReplyToID]; ok {
				message.ReplyTo = &types.MessageRef{
					ID:         target.ID,
					Text:       target.Text,
					SenderName: target.SenderName,
				}
			}
		}
		messages = append(messages, message)
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (r *fakeMessageRepo) Get(_ context.Context, id int) (types.Message, error) {
	message, ok := r.messages[id]
	if !ok {
		return types.Message{}, store.ErrNotFound
	}
	message.ReadBy = r.receipts[id]
	return message, nil
}

func (r *fakeMessageRepo) AddReadReceipt(_ context.Context, messageID, userID int, at time.Time) error {
	message, ok := r.messages[messageID]
	if !ok {
		return store.ErrNotFound
	}
	for _, receipt := range r.receipts[messageID] {
		if receipt.UserID == userID {
			return nil
		}
	}
	r.receipts[messageID] = append(r.receipts[messageID], types.ReadReceipt{UserID: userID, ReadAt: at})
	message.IsRead = true
	r.messages[messageID] = message
	return nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.messages[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.messages, id)
	delete(r.receipts, id)
	return nil
}

func (r *fakeMessageRepo) CountUnreadFromCitizens(_ context.Context) (int, error) {
	count := 0
	for _, message := range r.messages {
		if message.SenderType == types.RoleCitizen && !message.IsRead {
			count++
		}
	}
	return count, nil
}

type fakeImageStore struct {
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: make(map[string][]byte)}
}

func (s *fakeImageStore) Put(_ context.Context, key string, r io.Reader, size int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeImageStore) Delete(_ context.Context, key string) error {
	if _, ok := s.objects[key]; !ok {
		return errors.New("object not found")
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type fakeEventSink struct {
	published []string
}

func (s *fakeEventSink) Publish(_ context.Context, _ string, _ []byte, attrs map[string]string) (string, error) {
	s.published = append(s.published, attrs["type"])
	return "", nil
}
