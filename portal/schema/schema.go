package schema

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleFarmer = "farmer"
	RoleAdmin  = "admin"
)

const (
	SeasonKharif = "Kharif"
	SeasonRabi   = "Rabi"
	SeasonZaid   = "Zaid"
)

const (
	SchemeActive = "active"
	SchemeClosed = "closed"
)

const (
	Pending  = "pending"
	Approved = "approved"
	Rejected = "rejected"
)

// UserProfile is keyed by the identity provider's subject id. Role is fixed
// at registration and never updated.
type UserProfile struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email string `gorm:"unique;size:254;not null"`
	Name  string `gorm:"size:100;not null"`
	Role  string `gorm:"size:20;not null;default:'farmer'"`

	Region   string `gorm:"size:100"`
	Password []byte

	CropInterests []CropInterest `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
}

func (u *UserProfile) Interests() []string {
	interests := make([]string, 0, len(u.CropInterests))
	for _, ci := range u.CropInterests {
		interests = append(interests, ci.Crop)
	}
	return interests
}

type CropInterest struct {
	UserId uuid.UUID `gorm:"type:uuid;primaryKey"`
	Crop   string    `gorm:"size:100;primaryKey"`
}

const (
	CropInputPesticide  = "pesticide"
	CropInputFertilizer = "fertilizer"
)

type Crop struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name   string `gorm:"size:100;not null"`
	Season string `gorm:"size:20;not null"`
	Region string `gorm:"size:100;not null"`

	Description string `gorm:"not null"`

	Inputs []CropInput `gorm:"foreignKey:CropId;constraint:OnDelete:CASCADE"`
}

// CropInput is one element of a crop's pesticide or fertilizer list. Position
// preserves the order the admin entered them in.
type CropInput struct {
	CropId   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind     string    `gorm:"size:20;primaryKey"`
	Position int       `gorm:"primaryKey"`
	Name     string    `gorm:"size:100;not null"`
}

func (c *Crop) InputNames(kind string) []string {
	names := make([]string, 0, len(c.Inputs))
	for _, input := range c.Inputs {
		if input.Kind == kind {
			names = append(names, input.Name)
		}
	}
	return names
}

type Scheme struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Title       string `gorm:"size:200;not null"`
	Description string `gorm:"not null"`
	Eligibility string
	Benefits    string

	// Deadline is stored as a point in time (UTC midnight of the calendar
	// date the admin supplied), not as a string.
	Deadline time.Time `gorm:"not null"`

	Status string `gorm:"size:20;not null;default:'active'"`
}

// Application references a farmer and a scheme by id. FarmerName and
// SchemeName are point-in-time snapshots taken at submission; they are never
// updated if the source entity renames, and FarmerId is deliberately not a
// foreign key so that deactivating a farmer orphans the reference instead of
// cascading.
type Application struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	FarmerId   uuid.UUID `gorm:"type:uuid;not null;index"`
	FarmerName string    `gorm:"size:100;not null"`

	SchemeId   uuid.UUID `gorm:"type:uuid;not null"`
	SchemeName string    `gorm:"size:200;not null"`

	Status string `gorm:"size:20;not null"`

	LandSize float64 `gorm:"not null"`
	CropType string  `gorm:"size:100;not null"`
	Details  string

	// AppliedAt is assigned by the store exactly once at creation, never
	// client-supplied.
	AppliedAt time.Time `gorm:"not null;index"`
}

type Notification struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Message string `gorm:"not null"`
	Type    string `gorm:"size:50;not null"`
	SentBy  string `gorm:"size:100;not null"`

	Timestamp time.Time `gorm:"not null;index"`

	Receipts []NotificationReceipt `gorm:"foreignKey:NotificationId;constraint:OnDelete:CASCADE"`
}

// NotificationReceipt holds the per-farmer read flag. One row is written for
// every farmer that existed at send time; a farmer created afterwards has no
// row and is treated as having read the notification.
type NotificationReceipt struct {
	NotificationId uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId         uuid.UUID `gorm:"type:uuid;primaryKey"`
	IsRead         bool      `gorm:"not null;default:false"`
}

func (n *Notification) ReadStates() map[uuid.UUID]bool {
	states := make(map[uuid.UUID]bool, len(n.Receipts))
	for _, r := range n.Receipts {
		states[r.UserId] = r.IsRead
	}
	return states
}

// UnreadBy reports whether the notification is addressed to the given user
// and still unread by them. A user with no receipt is treated as having read
// it.
func (n *Notification) UnreadBy(userId uuid.UUID) bool {
	for _, r := range n.Receipts {
		if r.UserId == userId {
			return !r.IsRead
		}
	}
	return false
}
