package types

import "time"

// Roles assignable to a user account. Registration always produces a
// citizen; admin accounts are provisioned directly in the database.
const (
	RoleCitizen = "citizen"
	RoleAdmin   = "admin"
)

// User represents a registered account in the system.
// It contains identity, contact, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// FirstName is the user's given name.
	FirstName string `json:"firstName" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"lastName" db:"last_name"`

	// Email is the user's email address. Unique across all users,
	// stored lowercased so uniqueness is case-insensitive.
	Email string `json:"email" db:"email"`

	// Phone is the user's primary phone number.
	Phone string `json:"phone" db:"phone"`

	// AltPhone is an optional secondary phone number.
	AltPhone string `json:"altPhone" db:"alt_phone"`

	// PoliceStation is the police station district the user belongs to.
	PoliceStation string `json:"ps" db:"police_station"`

	// NID is the user's national identity number. Unique across all users.
	NID string `json:"nid" db:"nid"`

	// Birthdate is the user's date of birth.
	Birthdate time.Time `json:"birthdate" db:"birthdate"`

	// Age is the user's age, derived from Birthdate at registration
	// when the client does not supply it.
	Age int `json:"age" db:"age"`

	// PresentAddress is the user's current residential address.
	PresentAddress string `json:"presentAddress" db:"present_address"`

	// PermanentAddress is the user's permanent residential address.
	PermanentAddress string `json:"permanentAddress" db:"permanent_address"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Role indicates the user's authorization level,
	// either "citizen" or "admin".
	Role string `json:"role" db:"role"`

	// Active reports whether the account is enabled.
	Active bool `json:"active" db:"active"`

	// LastLoginAt is the timestamp of the most recent successful login,
	// nil if the user has never logged in.
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`

	// ProfileImage is an optional object key of the user's profile picture.
	ProfileImage string `json:"profileImage,omitempty" db:"profile_image"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserSummary is the public projection of a user returned alongside
// authentication responses. It never carries credentials.
type UserSummary struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Summary returns the public projection of the user.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}
