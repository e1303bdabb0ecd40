package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shebashongskar/apiserver/internal/store"
	"github.com/shebashongskar/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByNID(ctx context.Context, nid string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateProfile(ctx context.Context, user types.User) (types.User, error)
	UpdateLastLogin(ctx context.Context, id int, at time.Time) error
}

// ProfileUpdate carries the citizen-editable profile fields. Any other
// field arriving in a request payload is simply never read.
type ProfileUpdate struct {
	Phone            string
	AltPhone         string
	PresentAddress   string
	PermanentAddress string
}

// UserService encapsulates identity use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// Register persists a new citizen account. Email and NID uniqueness is
// enforced here; the role is always forced to citizen regardless of what
// the caller supplied.
func (s *UserService) Register(ctx context.Context, user types.User) (types.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if _, err := s.repo.GetByEmail(ctx, user.Email); err == nil {
		return types.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}
	if _, err := s.repo.GetByNID(ctx, user.NID); err == nil {
		return types.User{}, ErrNIDTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	user.Role = types.RoleCitizen
	user.Active = true
	if user.Age == 0 && !user.Birthdate.IsZero() {
		user.Age = ageAt(user.Birthdate, time.Now())
	}

	return s.repo.Create(ctx, user)
}

// UpdateProfile writes the four citizen-editable fields. Phone and present
// address must be non-blank; the optional fields are coerced to "".
func (s *UserService) UpdateProfile(ctx context.Context, id int, update ProfileUpdate) (types.User, error) {
	update.Phone = strings.TrimSpace(update.Phone)
	update.PresentAddress = strings.TrimSpace(update.PresentAddress)
	if update.Phone == "" || update.PresentAddress == "" {
		return types.User{}, ErrInvalidProfile
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	user.Phone = update.Phone
	user.AltPhone = strings.TrimSpace(update.AltPhone)
	user.PresentAddress = update.PresentAddress
	user.PermanentAddress = strings.TrimSpace(update.PermanentAddress)

	return s.repo.UpdateProfile(ctx, user)
}

// TouchLastLogin bumps the last-login timestamp. Failures are reported but
// never fail the login itself; callers treat this as best-effort.
func (s *UserService) TouchLastLogin(ctx context.Context, id int) error {
	return s.repo.UpdateLastLogin(ctx, id, time.Now())
}

func ageAt(birthdate, now time.Time) int {
	age := now.Year() - birthdate.Year()
	if now.YearDay() < birthdate.YearDay() {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
