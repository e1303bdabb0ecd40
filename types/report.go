package types

import "time"

// Categories a report may be filed under. The vocabulary is fixed;
// requests with any other value are rejected.
const (
	CategoryElectricity = "Electricity Issue"
	CategoryGas         = "Gas Issue"
	CategoryRoad        = "Road Issue"
	CategoryWater       = "Water Issue"
	CategoryOther       = "Other Issue"
)

// Statuses a report moves through. Transitions are admin-only and
// unrestricted: any status may follow any other.
const (
	StatusPending    = "Pending"
	StatusOnProgress = "On Progress"
	StatusSolved     = "Solved"
	StatusDeclined   = "Declined"
)

// ValidCategory reports whether category is part of the fixed vocabulary.
func ValidCategory(category string) bool {
	switch category {
	case CategoryElectricity, CategoryGas, CategoryRoad, CategoryWater, CategoryOther:
		return true
	}
	return false
}

// ValidStatus reports whether status is part of the fixed vocabulary.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusOnProgress, StatusSolved, StatusDeclined:
		return true
	}
	return false
}

// Report represents a citizen-filed complaint.
type Report struct {
	// ID is the unique identifier of the report.
	ID int `json:"id" db:"id"`

	// UserID references the citizen who filed the report.
	// The owner never changes after creation.
	UserID int `json:"userId" db:"user_id"`

	// Text is the free-form description of the issue.
	Text string `json:"text" db:"text"`

	// Category classifies the issue. Immutable after creation.
	Category string `json:"category" db:"category"`

	// Images holds object-storage keys of the attached photos,
	// at most five per report.
	Images []string `json:"images" db:"images"`

	// Status is the current triage state of the report.
	Status string `json:"status" db:"status"`

	// AdminNote is the free-text response left by an admin. Overwritten
	// wholesale on every status update.
	AdminNote string `json:"adminNote" db:"admin_note"`

	// Priority is an optional triage hint supplied at creation.
	Priority string `json:"priority,omitempty" db:"priority"`

	// Location is an optional free-form location supplied at creation.
	Location string `json:"location,omitempty" db:"location"`

	// Owner carries the joined owner details for API responses.
	Owner *ReportOwner `json:"user,omitempty" db:"-"`

	// CreatedAt is the timestamp when the report was filed.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the report.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ReportOwner is the owner projection joined onto report responses.
// Contact fields are populated only for admin-facing listings.
type ReportOwner struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"presentAddress,omitempty"`
}

// ReportFilter narrows admin report listings. Zero values mean no filter.
type ReportFilter struct {
	Category string
	Status   string
}
