package tests

import (
	"bytes"
	"fmt"
	"testing"

	"agriportal/portal/auth"
	"agriportal/portal/schema"
	"agriportal/portal/services"
	"agriportal/portal/store"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	portal services.Portal
	api    chi.Router
	db     *gorm.DB
	store  *store.Gateway
}

const (
	adminName     = "admin123"
	adminEmail    = "admin123@mail.com"
	adminPassword = "admin_password123"
)

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	err = db.AutoMigrate(
		&schema.UserProfile{}, &schema.CropInterest{},
		&schema.Crop{}, &schema.CropInput{}, &schema.Scheme{},
		&schema.Application{},
		&schema.Notification{}, &schema.NotificationReceipt{},
	)
	if err != nil {
		t.Fatal(err)
	}

	userAuth, err := auth.NewBasicIdentityProvider(
		db,
		auth.NewAuditLogger(new(bytes.Buffer)),
		auth.BasicProviderArgs{
			Secret:        []byte("290zcv02ai249"),
			AdminName:     adminName,
			AdminEmail:    adminEmail,
			AdminPassword: adminPassword,
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	portal := services.NewPortal(db, userAuth)

	return &testEnv{portal: portal, api: portal.Routes(), db: db, store: store.NewGateway(db)}
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

func (t *testEnv) newFarmer(name string, interests ...string) (client, error) {
	c := t.newClient()
	login, err := c.signup(signupArgs{
		Name:          name,
		Email:         name + "@mail.com",
		Password:      name + "_password",
		Region:        "Punjab",
		CropInterests: interests,
	})
	if err != nil {
		return client{}, err
	}

	err = c.login(login)
	if err != nil {
		return client{}, err
	}

	return c, nil
}

func (t *testEnv) adminClient() (client, error) {
	c := t.newClient()
	err := c.login(loginInfo{Email: adminEmail, Password: adminPassword})
	return c, err
}

// createScheme adds a scheme with distinct fields derived from the title.
func (t *testEnv) createScheme(admin *client, title, deadline string) (string, error) {
	return admin.createScheme(map[string]interface{}{
		"title":       title,
		"description": fmt.Sprintf("%v description", title),
		"eligibility": fmt.Sprintf("farmers growing wheat for %v", title),
		"benefits":    "subsidy",
		"deadline":    deadline,
	})
}
