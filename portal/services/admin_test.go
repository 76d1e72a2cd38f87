package services

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"agriportal/portal/auth"
	"agriportal/portal/schema"
	"agriportal/portal/session"
	"agriportal/portal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubProvider lets tests control the identity side of user removal without
// a running keycloak.
type stubProvider struct {
	deleteErr error
	deleted   []uuid.UUID
}

func (p *stubProvider) AuthMiddleware() chi.Middlewares { return nil }

func (p *stubProvider) AllowDirectSignup() bool { return false }

func (p *stubProvider) LoginWithEmail(email, password string) (auth.LoginResult, error) {
	return auth.LoginResult{}, errors.New("not supported")
}

func (p *stubProvider) LoginWithToken(accessToken string) (auth.LoginResult, error) {
	return auth.LoginResult{}, errors.New("not supported")
}

func (p *stubProvider) CreateUser(email, password string, seed auth.ProfileSeed) (uuid.UUID, error) {
	return uuid.Nil, errors.New("not supported")
}

func (p *stubProvider) DeleteUser(userId uuid.UUID) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deleted = append(p.deleted, userId)
	return nil
}

func newDeactivateFixture(t *testing.T, provider auth.IdentityProvider) (*AdminService, *gorm.DB, schema.UserProfile) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&schema.UserProfile{}, &schema.CropInterest{}, &schema.Application{},
	))

	user := schema.UserProfile{
		Id:    uuid.New(),
		Email: "ravi@mail.com",
		Name:  "ravi",
		Role:  schema.RoleFarmer,
	}
	require.NoError(t, db.Create(&user).Error)

	svc := &AdminService{
		db:       db,
		store:    store.NewGateway(db),
		sessions: session.NewManager(),
		userAuth: provider,
	}
	return svc, db, user
}

func deactivate(svc *AdminService, userId uuid.UUID) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Delete("/users/{user_id}", svc.DeactivateUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/users/"+userId.String(), nil))
	return w
}

func TestDeactivateKeepsProfileWhenIdentityDeleteFails(t *testing.T) {
	provider := &stubProvider{deleteErr: errors.New("identity backend unreachable")}
	svc, db, user := newDeactivateFixture(t, provider)

	w := deactivate(svc, user.Id)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// The profile must survive so the account cannot log back in later and
	// be re-issued a fresh default profile.
	_, err := schema.GetUser(user.Id, db)
	assert.NoError(t, err)
}

func TestDeactivateRemovesIdentityThenProfile(t *testing.T) {
	provider := &stubProvider{}
	svc, db, user := newDeactivateFixture(t, provider)

	w := deactivate(svc, user.Id)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []uuid.UUID{user.Id}, provider.deleted)

	_, err := schema.GetUser(user.Id, db)
	assert.ErrorIs(t, err, schema.ErrUserNotFound)
}
