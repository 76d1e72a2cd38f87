package tests

import (
	"strings"
	"testing"
)

func TestApplicationLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	farmer, err := env.newFarmer("ramesh")
	if err != nil {
		t.Fatal(err)
	}

	schemeId, err := env.createScheme(&admin, "Crop Insurance", "2026-03-31")
	if err != nil {
		t.Fatal(err)
	}

	applicationId, err := farmer.submitApplication(schemeId, 4.5, "Wheat", "irrigated plot")
	if err != nil {
		t.Fatal(err)
	}

	apps, err := farmer.farmerApplications()
	if err != nil {
		t.Fatal(err)
	}
	if len(apps) != 1 {
		t.Fatalf("expected 1 application, got %d", len(apps))
	}

	app := apps[0]
	if app.Id != applicationId || app.Status != "pending" {
		t.Fatalf("new application should be pending: %v", app)
	}
	if app.FarmerName != "ramesh" || app.SchemeName != "Crop Insurance" {
		t.Fatalf("application should snapshot farmer and scheme names: %v", app)
	}
	if app.AppliedAt == "" {
		t.Fatal("applied at timestamp should be assigned")
	}

	if err := admin.setApplicationStatus(applicationId, "approved"); err != nil {
		t.Fatal(err)
	}

	apps, err = farmer.farmerApplications()
	if err != nil {
		t.Fatal(err)
	}
	if apps[0].Status != "approved" {
		t.Fatalf("application should be approved, got %v", apps[0].Status)
	}
}

func TestApplicationStatusGuards(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	farmer, err := env.newFarmer("suresh")
	if err != nil {
		t.Fatal(err)
	}

	schemeId, err := env.createScheme(&admin, "Soil Health", "2026-06-30")
	if err != nil {
		t.Fatal(err)
	}

	applicationId, err := farmer.submitApplication(schemeId, 2, "Rice", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.setApplicationStatus(applicationId, "pending"); err == nil {
		t.Fatal("cannot set an application back to pending")
	}
	if err := admin.setApplicationStatus(applicationId, "bogus"); err == nil {
		t.Fatal("unknown status should be rejected")
	}

	if err := admin.setApplicationStatus(applicationId, "approved"); err != nil {
		t.Fatal(err)
	}

	// A decided application stays decided.
	if err := admin.setApplicationStatus(applicationId, "rejected"); err == nil {
		t.Fatal("approved application cannot be rejected afterwards")
	}

	apps, err := admin.adminApplications()
	if err != nil {
		t.Fatal(err)
	}
	if len(apps) != 1 || apps[0].Status != "approved" {
		t.Fatalf("application should remain approved: %v", apps)
	}
}

func TestApplicationValidation(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	farmer, err := env.newFarmer("mahesh")
	if err != nil {
		t.Fatal(err)
	}

	schemeId, err := env.createScheme(&admin, "Drip Irrigation", "2026-01-15")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := farmer.submitApplication(schemeId, 0, "Wheat", ""); err == nil {
		t.Fatal("land size must be positive")
	}
	if _, err := farmer.submitApplication(schemeId, 3, "", ""); err == nil {
		t.Fatal("crop type is required")
	}

	missingScheme := "00000000-0000-0000-0000-000000000001"
	if _, err := farmer.submitApplication(missingScheme, 3, "Wheat", ""); err == nil {
		t.Fatal("unknown scheme should be rejected")
	}
}

func TestApplicationListings(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	farmerA, err := env.newFarmer("farmer_a")
	if err != nil {
		t.Fatal(err)
	}
	farmerB, err := env.newFarmer("farmer_b")
	if err != nil {
		t.Fatal(err)
	}

	schemeId, err := env.createScheme(&admin, "Kisan Credit", "2026-09-01")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := farmerA.submitApplication(schemeId, 1, "Wheat", "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := farmerB.submitApplication(schemeId, 2, "Rice", "second"); err != nil {
		t.Fatal(err)
	}
	if _, err := farmerA.submitApplication(schemeId, 3, "Maize", "third"); err != nil {
		t.Fatal(err)
	}

	ownApps, err := farmerA.farmerApplications()
	if err != nil {
		t.Fatal(err)
	}
	if len(ownApps) != 2 {
		t.Fatalf("farmer should only see own applications, got %d", len(ownApps))
	}
	for _, app := range ownApps {
		if app.FarmerId != farmerA.userId {
			t.Fatalf("listing leaked another farmer's application: %v", app)
		}
	}
	if strings.Compare(ownApps[0].AppliedAt, ownApps[1].AppliedAt) < 0 {
		t.Fatalf("own applications should be newest first: %v", ownApps)
	}

	allApps, err := admin.adminApplications()
	if err != nil {
		t.Fatal(err)
	}
	if len(allApps) != 3 {
		t.Fatalf("admin should see all applications, got %d", len(allApps))
	}
	for i := 1; i < len(allApps); i++ {
		if strings.Compare(allApps[i-1].AppliedAt, allApps[i].AppliedAt) < 0 {
			t.Fatalf("admin listing should be newest first: %v", allApps)
		}
	}
}
