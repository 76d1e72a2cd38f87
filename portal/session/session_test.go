package session

import (
	"testing"

	"agriportal/portal/schema"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser(name string) schema.UserProfile {
	return schema.UserProfile{Id: uuid.New(), Email: name + "@mail.com", Name: name, Role: schema.RoleFarmer}
}

func TestSessionLifecycle(t *testing.T) {
	m := NewManager()
	user := testUser("abc")

	_, err := m.Get(user.Id)
	assert.ErrorIs(t, err, ErrNoSession)

	m.Begin(user)

	s, err := m.Get(user.Id)
	require.NoError(t, err)
	assert.Equal(t, DefaultFarmerTab, s.FarmerTab)
	assert.Equal(t, DefaultAdminTab, s.AdminTab)
	assert.Equal(t, user.Name, s.Draft.Name)
	assert.Nil(t, s.Draft.SchemeId)

	m.End(user.Id)
	_, err = m.Get(user.Id)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoginResetsState(t *testing.T) {
	m := NewManager()
	user := testUser("abc")

	m.Begin(user)
	require.NoError(t, m.SetFarmerTab(user.Id, "schemes"))
	require.NoError(t, m.SetDraft(user.Id, ApplicationDraft{CropType: "Wheat", LandSize: "3"}))

	// A new login replaces the session wholesale.
	m.Begin(user)

	s, err := m.Get(user.Id)
	require.NoError(t, err)
	assert.Equal(t, DefaultFarmerTab, s.FarmerTab)
	assert.Empty(t, s.Draft.CropType)
	assert.Equal(t, user.Name, s.Draft.Name)
}

func TestTabValidation(t *testing.T) {
	m := NewManager()
	user := testUser("abc")
	m.Begin(user)

	require.NoError(t, m.SetFarmerTab(user.Id, "apply"))
	require.NoError(t, m.SetAdminTab(user.Id, "notifications"))

	assert.ErrorIs(t, m.SetFarmerTab(user.Id, "user-management"), ErrUnknownTab)
	assert.ErrorIs(t, m.SetAdminTab(user.Id, "apply"), ErrUnknownTab)

	assert.ErrorIs(t, m.SetFarmerTab(uuid.New(), "apply"), ErrNoSession)
}

func TestPrefillScheme(t *testing.T) {
	m := NewManager()
	user := testUser("abc")
	m.Begin(user)

	schemeId := uuid.New()
	require.NoError(t, m.PrefillScheme(user.Id, schemeId))

	s, err := m.Get(user.Id)
	require.NoError(t, err)
	require.NotNil(t, s.Draft.SchemeId)
	assert.Equal(t, schemeId, *s.Draft.SchemeId)
	assert.Equal(t, "apply", s.FarmerTab)
}

func TestDraftKeepsProfileName(t *testing.T) {
	m := NewManager()
	user := testUser("abc")
	m.Begin(user)

	// The name field always comes from the profile, not the request.
	require.NoError(t, m.SetDraft(user.Id, ApplicationDraft{Name: "impostor", CropType: "Rice"}))

	s, err := m.Get(user.Id)
	require.NoError(t, err)
	assert.Equal(t, user.Name, s.Draft.Name)
	assert.Equal(t, "Rice", s.Draft.CropType)

	require.NoError(t, m.ResetDraft(user.Id))
	s, err = m.Get(user.Id)
	require.NoError(t, err)
	assert.Empty(t, s.Draft.CropType)
	assert.Equal(t, user.Name, s.Draft.Name)
}

func TestSessionCopyIsolation(t *testing.T) {
	m := NewManager()
	user := testUser("abc")
	m.Begin(user)

	s, err := m.Get(user.Id)
	require.NoError(t, err)
	s.FarmerTab = "crops"

	again, err := m.Get(user.Id)
	require.NoError(t, err)
	assert.Equal(t, DefaultFarmerTab, again.FarmerTab)
}
