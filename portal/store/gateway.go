package store

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agriportal/portal/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrValidation indicates malformed or missing required input, detected
	// before any write is attempted.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the target of a mutation no longer exists.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition indicates a disallowed application status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStoreUnavailable indicates the store rejected or failed the request.
	// Operations are never retried internally; retry policy belongs to the
	// caller.
	ErrStoreUnavailable = errors.New("store unavailable")
)

const deadlineLayout = "2006-01-02"

// Gateway is the sole point of contact with the persistent store. It
// translates between wire rows and the domain entities, normalizes
// server-assigned timestamps on read, and stamps them on write.
type Gateway struct {
	db *gorm.DB
}

func NewGateway(db *gorm.DB) *Gateway {
	return &Gateway{db: db}
}

// ListUsers returns all user profiles. No ordering is guaranteed.
func (g *Gateway) ListUsers() ([]schema.UserProfile, error) {
	var users []schema.UserProfile
	result := g.db.Preload("CropInterests").Find(&users)
	if result.Error != nil {
		slog.Error("sql error listing users", "error", result.Error)
		return nil, ErrStoreUnavailable
	}
	return users, nil
}

// ListCrops returns the full crop catalog. No ordering is guaranteed; input
// lists are returned in the order they were entered.
func (g *Gateway) ListCrops() ([]schema.Crop, error) {
	var crops []schema.Crop
	result := g.db.Preload("Inputs", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Find(&crops)
	if result.Error != nil {
		slog.Error("sql error listing crops", "error", result.Error)
		return nil, ErrStoreUnavailable
	}
	return crops, nil
}

// ListSchemes returns all schemes ordered by title ascending. Deadlines are
// normalized to a calendar date value (UTC midnight) on read.
func (g *Gateway) ListSchemes() ([]schema.Scheme, error) {
	var schemes []schema.Scheme
	result := g.db.Order("title asc").Find(&schemes)
	if result.Error != nil {
		slog.Error("sql error listing schemes", "error", result.Error)
		return nil, ErrStoreUnavailable
	}
	for i := range schemes {
		schemes[i].Deadline = normalizeDate(schemes[i].Deadline)
	}
	return schemes, nil
}

// ListApplications returns applications. With a farmerId it filters to that
// farmer with no ordering guarantee; the result set is small and callers sort
// locally. Without, it returns all applications ordered by appliedAt
// descending server-side.
func (g *Gateway) ListApplications(farmerId *uuid.UUID) ([]schema.Application, error) {
	var applications []schema.Application

	query := g.db
	if farmerId != nil {
		query = query.Where("farmer_id = ?", *farmerId)
	} else {
		query = query.Order("applied_at desc")
	}

	result := query.Find(&applications)
	if result.Error != nil {
		slog.Error("sql error listing applications", "farmer_id", farmerId, "error", result.Error)
		return nil, ErrStoreUnavailable
	}
	return applications, nil
}

// ListNotifications returns all notifications ordered by timestamp
// descending, with their per-farmer read receipts.
func (g *Gateway) ListNotifications() ([]schema.Notification, error) {
	var notifications []schema.Notification
	result := g.db.Preload("Receipts").Order("timestamp desc").Find(&notifications)
	if result.Error != nil {
		slog.Error("sql error listing notifications", "error", result.Error)
		return nil, ErrStoreUnavailable
	}
	return notifications, nil
}

// CreateApplication persists a new application. The caller must supply
// farmerId, schemeId, a positive land size, a crop type, and an explicit
// pending status; the store assigns the id and the appliedAt timestamp.
func (g *Gateway) CreateApplication(application schema.Application) (uuid.UUID, error) {
	switch {
	case application.FarmerId == uuid.Nil:
		return uuid.Nil, fmt.Errorf("%w: farmer id is required", ErrValidation)
	case application.SchemeId == uuid.Nil:
		return uuid.Nil, fmt.Errorf("%w: scheme id is required", ErrValidation)
	case application.LandSize <= 0:
		return uuid.Nil, fmt.Errorf("%w: land size must be a positive number", ErrValidation)
	case application.CropType == "":
		return uuid.Nil, fmt.Errorf("%w: crop type is required", ErrValidation)
	case application.Status != schema.Pending:
		return uuid.Nil, fmt.Errorf("%w: new applications must be submitted with status %v", ErrValidation, schema.Pending)
	}

	application.Id = uuid.New()
	application.AppliedAt = time.Now().UTC()

	result := g.db.Create(&application)
	if result.Error != nil {
		slog.Error("sql error creating application", "farmer_id", application.FarmerId, "error", result.Error)
		return uuid.Nil, ErrStoreUnavailable
	}
	return application.Id, nil
}

// CreateCrop persists a new catalog crop along with its ordered pesticide and
// fertilizer lists.
func (g *Gateway) CreateCrop(crop schema.Crop, pesticides, fertilizers []string) (uuid.UUID, error) {
	switch {
	case crop.Name == "":
		return uuid.Nil, fmt.Errorf("%w: crop name is required", ErrValidation)
	case crop.Region == "":
		return uuid.Nil, fmt.Errorf("%w: crop region is required", ErrValidation)
	case crop.Description == "":
		return uuid.Nil, fmt.Errorf("%w: crop description is required", ErrValidation)
	}

	if crop.Season != schema.SeasonKharif && crop.Season != schema.SeasonRabi && crop.Season != schema.SeasonZaid {
		return uuid.Nil, fmt.Errorf("%w: unknown season '%v'", ErrValidation, crop.Season)
	}

	crop.Id = uuid.New()
	crop.Inputs = make([]schema.CropInput, 0, len(pesticides)+len(fertilizers))
	for i, name := range pesticides {
		crop.Inputs = append(crop.Inputs, schema.CropInput{
			CropId: crop.Id, Kind: schema.CropInputPesticide, Position: i, Name: name,
		})
	}
	for i, name := range fertilizers {
		crop.Inputs = append(crop.Inputs, schema.CropInput{
			CropId: crop.Id, Kind: schema.CropInputFertilizer, Position: i, Name: name,
		})
	}

	result := g.db.Create(&crop)
	if result.Error != nil {
		slog.Error("sql error creating crop", "name", crop.Name, "error", result.Error)
		return uuid.Nil, ErrStoreUnavailable
	}
	return crop.Id, nil
}

// CreateScheme persists a new scheme, converting the supplied deadline string
// into a point-in-time value before the write. Status defaults to active.
func (g *Gateway) CreateScheme(scheme schema.Scheme, deadline string) (uuid.UUID, error) {
	if scheme.Title == "" {
		return uuid.Nil, fmt.Errorf("%w: scheme title is required", ErrValidation)
	}
	if scheme.Description == "" {
		return uuid.Nil, fmt.Errorf("%w: scheme description is required", ErrValidation)
	}

	parsed, err := time.ParseInLocation(deadlineLayout, deadline, time.UTC)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: unparseable deadline '%v'", ErrValidation, deadline)
	}

	scheme.Id = uuid.New()
	scheme.Deadline = parsed
	if scheme.Status == "" {
		scheme.Status = schema.SchemeActive
	}

	result := g.db.Create(&scheme)
	if result.Error != nil {
		slog.Error("sql error creating scheme", "title", scheme.Title, "error", result.Error)
		return uuid.Nil, ErrStoreUnavailable
	}
	return scheme.Id, nil
}

// CreateNotification persists a broadcast notification with one unread
// receipt per recipient. The caller computes the recipient set (every farmer
// existing at send time); the store stamps the timestamp.
func (g *Gateway) CreateNotification(notification schema.Notification, recipients []uuid.UUID) (uuid.UUID, error) {
	notification.Id = uuid.New()
	notification.Timestamp = time.Now().UTC()
	notification.Receipts = make([]schema.NotificationReceipt, 0, len(recipients))
	for _, userId := range recipients {
		notification.Receipts = append(notification.Receipts, schema.NotificationReceipt{
			NotificationId: notification.Id, UserId: userId, IsRead: false,
		})
	}

	result := g.db.Create(&notification)
	if result.Error != nil {
		slog.Error("sql error creating notification", "error", result.Error)
		return uuid.Nil, ErrStoreUnavailable
	}
	return notification.Id, nil
}

// SetApplicationStatus transitions a pending application to approved or
// rejected. A terminal status is never reverted: the update is conditional on
// the current status still being pending.
func (g *Gateway) SetApplicationStatus(applicationId uuid.UUID, status string) error {
	if status != schema.Approved && status != schema.Rejected {
		return fmt.Errorf("%w: status must be one of %v, %v", ErrInvalidTransition, schema.Approved, schema.Rejected)
	}

	result := g.db.Model(&schema.Application{}).
		Where("id = ? AND status = ?", applicationId, schema.Pending).
		Update("status", status)
	if result.Error != nil {
		slog.Error("sql error updating application status", "application_id", applicationId, "error", result.Error)
		return ErrStoreUnavailable
	}

	if result.RowsAffected == 0 {
		application, err := schema.GetApplication(applicationId, g.db)
		if err != nil {
			if errors.Is(err, schema.ErrApplicationNotFound) {
				return fmt.Errorf("%w: application %v", ErrNotFound, applicationId)
			}
			return ErrStoreUnavailable
		}
		return fmt.Errorf("%w: application %v is already %v", ErrInvalidTransition, applicationId, application.Status)
	}

	return nil
}

// DeactivateUser hard-deletes the profile. The user's applications are
// deliberately left in place as orphaned references.
func (g *Gateway) DeactivateUser(userId uuid.UUID) error {
	err := g.db.Transaction(func(txn *gorm.DB) error {
		result := txn.Delete(&schema.CropInterest{}, "user_id = ?", userId)
		if result.Error != nil {
			slog.Error("sql error deleting crop interests", "user_id", userId, "error", result.Error)
			return ErrStoreUnavailable
		}

		result = txn.Delete(&schema.UserProfile{}, "id = ?", userId)
		if result.Error != nil {
			slog.Error("sql error deleting user", "user_id", userId, "error", result.Error)
			return ErrStoreUnavailable
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: user %v", ErrNotFound, userId)
		}
		return nil
	})
	return err
}

// MarkNotificationRead flips a single receipt to read. The operation is
// idempotent; marking a receipt that was already read is a no-op. A receipt
// is created if absent so the read acknowledgment is never lost.
func (g *Gateway) MarkNotificationRead(notificationId, userId uuid.UUID) error {
	return g.db.Transaction(func(txn *gorm.DB) error {
		var notification schema.Notification
		result := txn.First(&notification, "id = ?", notificationId)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: notification %v", ErrNotFound, notificationId)
			}
			slog.Error("sql error looking up notification", "notification_id", notificationId, "error", result.Error)
			return ErrStoreUnavailable
		}

		result = txn.Model(&schema.NotificationReceipt{}).
			Where("notification_id = ? AND user_id = ?", notificationId, userId).
			Update("is_read", true)
		if result.Error != nil {
			slog.Error("sql error updating notification receipt", "notification_id", notificationId, "user_id", userId, "error", result.Error)
			return ErrStoreUnavailable
		}

		if result.RowsAffected == 0 {
			receipt := schema.NotificationReceipt{NotificationId: notificationId, UserId: userId, IsRead: true}
			if result := txn.Create(&receipt); result.Error != nil {
				slog.Error("sql error creating notification receipt", "notification_id", notificationId, "user_id", userId, "error", result.Error)
				return ErrStoreUnavailable
			}
		}
		return nil
	})
}

func normalizeDate(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
