package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"agriportal/portal/schema"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BasicIdentityProvider manages credentials directly: bcrypt password hashes
// on the profile row and short-lived JWTs for request auth.
type BasicIdentityProvider struct {
	jwtManager *JwtManager
	db         *gorm.DB
	auditLog   AuditLogger
}

type BasicProviderArgs struct {
	Secret        []byte
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

func NewBasicIdentityProvider(db *gorm.DB, auditLog AuditLogger, args BasicProviderArgs) (IdentityProvider, error) {
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(args.AdminPassword), 10)
	if err != nil {
		return nil, fmt.Errorf("error encrypting admin password: %w", err)
	}

	err = addInitialAdminToDb(db, uuid.New(), args.AdminName, args.AdminEmail, hashedPwd)
	if err != nil {
		return nil, fmt.Errorf("error adding initial admin to db: %w", err)
	}

	return &BasicIdentityProvider{
		jwtManager: NewJwtManager(args.Secret),
		db:         db,
		auditLog:   auditLog,
	}, nil
}

func (auth *BasicIdentityProvider) addUserToContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := func(w http.ResponseWriter, r *http.Request) {
			userId, err := ValueFromContext(r, userIdKey)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			userUUID, err := uuid.Parse(userId)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid user uuid '%v': %v", userId, err), http.StatusUnauthorized)
				return
			}

			user, err := schema.GetUser(userUUID, auth.db)
			if err != nil {
				if errors.Is(err, schema.ErrUserNotFound) {
					http.Error(w, err.Error(), http.StatusNotFound)
					return
				}
				http.Error(w, fmt.Sprintf("unable to find user %v: %v", userId, err), http.StatusInternalServerError)
				return
			}

			reqCtx := r.Context()
			reqCtx = context.WithValue(reqCtx, UserRequestContextKey, user)
			next.ServeHTTP(w, r.WithContext(reqCtx))
		}

		return http.HandlerFunc(handler)
	}
}

func (auth *BasicIdentityProvider) AuthMiddleware() chi.Middlewares {
	return chi.Middlewares{auth.jwtManager.Verifier(), auth.jwtManager.Authenticator(), auth.addUserToContext(), auth.auditLog.Middleware}
}

func (auth *BasicIdentityProvider) AllowDirectSignup() bool {
	return true
}

func (auth *BasicIdentityProvider) LoginWithEmail(email, password string) (LoginResult, error) {
	var user schema.UserProfile
	result := auth.db.First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return LoginResult{}, ErrUserNotFoundWithEmail
		}
		slog.Error("sql error looking up user by email", "error", result.Error)
		return LoginResult{}, schema.ErrDbAccessFailed
	}

	err := bcrypt.CompareHashAndPassword(user.Password, []byte(password))
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := auth.jwtManager.CreateUserJwt(user.Id)
	if err != nil {
		return LoginResult{}, ErrGeneratingJwt
	}

	return LoginResult{UserId: user.Id, AccessToken: token}, nil
}

func (auth *BasicIdentityProvider) LoginWithToken(accessToken string) (LoginResult, error) {
	return LoginResult{}, fmt.Errorf("login with token is not supported for this identity provider")
}

func (auth *BasicIdentityProvider) CreateUser(email, password string, seed ProfileSeed) (uuid.UUID, error) {
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error encrypting password: %w", err)
	}

	newUser := newProfile(uuid.New(), email, seed)
	newUser.Password = hashedPwd

	err = auth.db.Transaction(func(txn *gorm.DB) error {
		var existingUser schema.UserProfile
		result := txn.Limit(1).Find(&existingUser, "email = ?", email)
		if result.Error != nil {
			slog.Error("sql error checking for existing email", "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		if result.RowsAffected != 0 {
			return ErrEmailAlreadyInUse
		}

		result = txn.Create(&newUser)
		if result.Error != nil {
			slog.Error("sql error creating new user entry", "error", result.Error)
			return schema.ErrDbAccessFailed
		}

		return nil
	})

	if err != nil {
		return uuid.Nil, fmt.Errorf("error creating new user: %w", err)
	}

	return newUser.Id, nil
}

func (auth *BasicIdentityProvider) DeleteUser(userId uuid.UUID) error {
	return nil
}
