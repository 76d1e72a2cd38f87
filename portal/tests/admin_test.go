package tests

import (
	"errors"
	"fmt"
	"testing"
)

func TestAdminDashboardStats(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	farmerA, err := env.newFarmer("stats_a")
	if err != nil {
		t.Fatal(err)
	}
	farmerB, err := env.newFarmer("stats_b")
	if err != nil {
		t.Fatal(err)
	}

	schemeId, err := env.createScheme(&admin, "Active Scheme", "2026-04-01")
	if err != nil {
		t.Fatal(err)
	}
	_, err = admin.createScheme(map[string]interface{}{
		"title": "Closed Scheme", "description": "done", "deadline": "2024-01-01", "status": "closed",
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := admin.createCrop(map[string]interface{}{
		"name": "Rice", "season": "Kharif", "region": "UP", "description": "paddy",
	}); err != nil {
		t.Fatal(err)
	}

	approvedId, err := farmerA.submitApplication(schemeId, 1, "Rice", "")
	if err != nil {
		t.Fatal(err)
	}
	rejectedId, err := farmerB.submitApplication(schemeId, 2, "Rice", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := farmerA.submitApplication(schemeId, 3, "Rice", ""); err != nil {
		t.Fatal(err)
	}

	if err := admin.setApplicationStatus(approvedId, "approved"); err != nil {
		t.Fatal(err)
	}
	if err := admin.setApplicationStatus(rejectedId, "rejected"); err != nil {
		t.Fatal(err)
	}

	var dashboard adminDashboard
	if err := admin.Get("/admin/dashboard").Do(&dashboard); err != nil {
		t.Fatal(err)
	}

	if dashboard.TotalFarmers != 2 {
		t.Fatalf("expected 2 farmers, got %d", dashboard.TotalFarmers)
	}
	if dashboard.TotalCrops != 1 {
		t.Fatalf("expected 1 crop, got %d", dashboard.TotalCrops)
	}
	if dashboard.ActiveSchemes != 1 {
		t.Fatalf("expected 1 active scheme, got %d", dashboard.ActiveSchemes)
	}
	if dashboard.TotalApplications != 3 || dashboard.PendingApplications != 1 ||
		dashboard.ApprovedApplications != 1 || dashboard.RejectedApplications != 1 {
		t.Fatalf("wrong application stats: %+v", dashboard)
	}
}

func TestUserSearch(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"anita", "sandeep", "bhavna"} {
		if _, err := env.newFarmer(name); err != nil {
			t.Fatal(err)
		}
	}

	var roster []rosterEntry
	if err := admin.Get("/admin/users").Do(&roster); err != nil {
		t.Fatal(err)
	}
	// The admin profile is not part of the farmer roster.
	if len(roster) != 3 {
		t.Fatalf("expected 3 farmers, got %d", len(roster))
	}

	if err := admin.Get("/admin/users?search=an").Do(&roster); err != nil {
		t.Fatal(err)
	}
	if len(roster) != 2 {
		t.Fatalf("search 'an' should match anita and sandeep, got %v", roster)
	}

	if err := admin.Get("/admin/users?search=BHAVNA").Do(&roster); err != nil {
		t.Fatal(err)
	}
	if len(roster) != 1 || roster[0].Name != "bhavna" {
		t.Fatalf("search should be case insensitive: %v", roster)
	}

	if err := admin.Get("/admin/users?search=nomatch").Do(&roster); err != nil {
		t.Fatal(err)
	}
	if len(roster) != 0 {
		t.Fatalf("expected empty roster, got %v", roster)
	}
}

func TestUserSearchApplicationCounts(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	farmer, err := env.newFarmer("counter")
	if err != nil {
		t.Fatal(err)
	}

	schemeId, err := env.createScheme(&admin, "Counted Scheme", "2026-02-01")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := farmer.submitApplication(schemeId, float64(i+1), "Wheat", ""); err != nil {
			t.Fatal(err)
		}
	}

	var roster []rosterEntry
	if err := admin.Get("/admin/users").Do(&roster); err != nil {
		t.Fatal(err)
	}
	if len(roster) != 1 || roster[0].ApplicationCount != 2 {
		t.Fatalf("expected 2 applications for farmer: %v", roster)
	}
}

func TestDeactivateUserOrphansApplications(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	farmer, err := env.newFarmer("leaving", "wheat")
	if err != nil {
		t.Fatal(err)
	}

	schemeId, err := env.createScheme(&admin, "Orphan Scheme", "2026-07-01")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := farmer.submitApplication(schemeId, 5, "Wheat", ""); err != nil {
		t.Fatal(err)
	}

	if err := admin.Delete(fmt.Sprintf("/admin/users/%v", farmer.userId)).Do(nil); err != nil {
		t.Fatal(err)
	}

	// Login is gone with the profile.
	c := env.newClient()
	err = c.login(loginInfo{Email: "leaving@mail.com", Password: "leaving_password"})
	if err == nil {
		t.Fatal("deactivated user should not be able to log in")
	}

	// The submitted application survives with its name snapshot.
	apps, err := admin.adminApplications()
	if err != nil {
		t.Fatal(err)
	}
	if len(apps) != 1 || apps[0].FarmerName != "leaving" {
		t.Fatalf("application should survive deactivation: %v", apps)
	}
	if apps[0].FarmerId != farmer.userId {
		t.Fatalf("orphaned application keeps the farmer reference: %v", apps[0])
	}

	// Deactivating again reports not found.
	err = admin.Delete(fmt.Sprintf("/admin/users/%v", farmer.userId)).Do(nil)
	if err == nil {
		t.Fatal("second deactivation should fail")
	}
	if errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unexpected error type: %v", err)
	}
}
