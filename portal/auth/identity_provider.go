package auth

import (
	"errors"
	"fmt"
	"log/slog"

	"agriportal/portal/schema"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFoundWithEmail = errors.New("no user found for given email")
	ErrInvalidCredentials    = errors.New("invalid login credentials")
	ErrGeneratingJwt         = errors.New("error generating jwt")
	ErrEmailAlreadyInUse     = errors.New("email is already in use")
)

type LoginResult struct {
	UserId      uuid.UUID
	AccessToken string
}

// ProfileSeed carries the profile attributes supplied at registration. Role
// defaults to farmer when empty; it is immutable after the profile is
// created.
type ProfileSeed struct {
	Name          string
	Role          string
	Region        string
	CropInterests []string
}

type IdentityProvider interface {
	AuthMiddleware() chi.Middlewares

	AllowDirectSignup() bool

	LoginWithEmail(email, password string) (LoginResult, error)

	LoginWithToken(accessToken string) (LoginResult, error)

	CreateUser(email, password string, seed ProfileSeed) (uuid.UUID, error)

	DeleteUser(userId uuid.UUID) error
}

func newProfile(id uuid.UUID, email string, seed ProfileSeed) schema.UserProfile {
	role := seed.Role
	if role == "" {
		role = schema.RoleFarmer
	}

	profile := schema.UserProfile{
		Id:     id,
		Email:  email,
		Name:   seed.Name,
		Role:   role,
		Region: seed.Region,
	}
	for _, crop := range seed.CropInterests {
		profile.CropInterests = append(profile.CropInterests, schema.CropInterest{UserId: id, Crop: crop})
	}
	return profile
}

func addInitialAdminToDb(db *gorm.DB, userId uuid.UUID, name, email string, password []byte) error {
	admin := newProfile(userId, email, ProfileSeed{Name: name, Role: schema.RoleAdmin})
	if password != nil {
		admin.Password = password
	}

	err := db.Transaction(func(txn *gorm.DB) error {
		var existing schema.UserProfile
		result := txn.Limit(1).Find(&existing, "id = ? or email = ?", userId, email)
		if result.Error != nil {
			slog.Error("sql error checking if admin has already been added", "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		if result.RowsAffected == 0 {
			result := txn.Create(&admin)
			if result.Error != nil {
				slog.Error("sql error creating initial admin user", "error", result.Error)
				return schema.ErrDbAccessFailed
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error adding initial admin to db: %w", err)
	}

	return nil
}

type requestContextKey string

const UserRequestContextKey requestContextKey = "user"
