package schema

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrSchemeNotFound       = errors.New("scheme not found")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrDbAccessFailed       = errors.New("db access failed")
)

func GetUser(userId uuid.UUID, db *gorm.DB) (UserProfile, error) {
	var user UserProfile

	result := db.Preload("CropInterests").First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user", "user_id", userId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetScheme(schemeId uuid.UUID, db *gorm.DB) (Scheme, error) {
	var scheme Scheme

	result := db.First(&scheme, "id = ?", schemeId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return scheme, ErrSchemeNotFound
		}
		slog.Error("sql error in get scheme", "scheme_id", schemeId, "error", result.Error)
		return scheme, ErrDbAccessFailed
	}

	return scheme, nil
}

func GetApplication(applicationId uuid.UUID, db *gorm.DB) (Application, error) {
	var application Application

	result := db.First(&application, "id = ?", applicationId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return application, ErrApplicationNotFound
		}
		slog.Error("sql error in get application", "application_id", applicationId, "error", result.Error)
		return application, ErrDbAccessFailed
	}

	return application, nil
}

func GetNotification(notificationId uuid.UUID, db *gorm.DB) (Notification, error) {
	var notification Notification

	result := db.Preload("Receipts").First(&notification, "id = ?", notificationId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return notification, ErrNotificationNotFound
		}
		slog.Error("sql error in get notification", "notification_id", notificationId, "error", result.Error)
		return notification, ErrDbAccessFailed
	}

	return notification, nil
}
