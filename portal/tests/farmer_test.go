package tests

import (
	"testing"
)

func TestApplyNowPrefill(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	farmer, err := env.newFarmer("prefill")
	if err != nil {
		t.Fatal(err)
	}

	schemeId, err := env.createScheme(&admin, "Prefill Scheme", "2026-08-01")
	if err != nil {
		t.Fatal(err)
	}

	var form applyForm
	if err := farmer.Get("/farmer/apply").Do(&form); err != nil {
		t.Fatal(err)
	}
	if form.Draft.SchemeId != nil {
		t.Fatalf("fresh draft should have no scheme: %v", form.Draft)
	}
	if form.Draft.Name != "prefill" {
		t.Fatalf("draft should carry the farmer's name: %v", form.Draft)
	}

	err = farmer.Post("/farmer/apply-now").Json(map[string]string{"scheme_id": schemeId}).Do(nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := farmer.Get("/farmer/apply").Do(&form); err != nil {
		t.Fatal(err)
	}
	if form.Draft.SchemeId == nil || *form.Draft.SchemeId != schemeId {
		t.Fatalf("apply-now should prefill the scheme: %v", form.Draft)
	}

	missing := "00000000-0000-0000-0000-000000000003"
	err = farmer.Post("/farmer/apply-now").Json(map[string]string{"scheme_id": missing}).Do(nil)
	if err == nil {
		t.Fatal("apply-now with unknown scheme should fail")
	}
}

func TestDraftResetAfterSubmission(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	farmer, err := env.newFarmer("resetter")
	if err != nil {
		t.Fatal(err)
	}

	schemeId, err := env.createScheme(&admin, "Reset Scheme", "2026-10-01")
	if err != nil {
		t.Fatal(err)
	}

	err = farmer.Post("/farmer/apply-now").Json(map[string]string{"scheme_id": schemeId}).Do(nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := farmer.submitApplication(schemeId, 2.5, "Rice", "drafted"); err != nil {
		t.Fatal(err)
	}

	var form applyForm
	if err := farmer.Get("/farmer/apply").Do(&form); err != nil {
		t.Fatal(err)
	}
	if form.Draft.SchemeId != nil || form.Draft.CropType != "" {
		t.Fatalf("draft should be reset after submission: %v", form.Draft)
	}
	if form.Draft.Name != "resetter" {
		t.Fatalf("reset draft keeps the farmer's name: %v", form.Draft)
	}
}

func TestTabValidation(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	farmer, err := env.newFarmer("tabber")
	if err != nil {
		t.Fatal(err)
	}

	if err := farmer.Post("/farmer/tab").Json(map[string]string{"tab": "schemes"}).Do(nil); err != nil {
		t.Fatal(err)
	}
	if err := farmer.Post("/farmer/tab").Json(map[string]string{"tab": "user-management"}).Do(nil); err == nil {
		t.Fatal("admin tab should be rejected for farmers")
	}

	if err := admin.Post("/admin/tab").Json(map[string]string{"tab": "user-management"}).Do(nil); err != nil {
		t.Fatal(err)
	}
	if err := admin.Post("/admin/tab").Json(map[string]string{"tab": "dashboard"}).Do(nil); err == nil {
		t.Fatal("farmer tab should be rejected for admins")
	}
}

func TestFarmerDashboardRecommendations(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	farmer, err := env.newFarmer("interested", "wheat")
	if err != nil {
		t.Fatal(err)
	}
	uninterested, err := env.newFarmer("uninterested")
	if err != nil {
		t.Fatal(err)
	}

	// createScheme writes "farmers growing wheat ..." into eligibility.
	for _, title := range []string{"Scheme A", "Scheme B", "Scheme C"} {
		if _, err := env.createScheme(&admin, title, "2026-11-01"); err != nil {
			t.Fatal(err)
		}
	}
	_, err = admin.createScheme(map[string]interface{}{
		"title": "Cotton Support", "description": "d", "eligibility": "cotton growers only",
		"deadline": "2026-11-01",
	})
	if err != nil {
		t.Fatal(err)
	}

	var dashboard farmerDashboard
	if err := farmer.Get("/farmer/dashboard").Do(&dashboard); err != nil {
		t.Fatal(err)
	}

	// More than two schemes match, only the first two by title are shown.
	if len(dashboard.RecommendedSchemes) != 2 {
		t.Fatalf("expected 2 recommendations, got %v", dashboard.RecommendedSchemes)
	}
	if dashboard.RecommendedSchemes[0].Title != "Scheme A" || dashboard.RecommendedSchemes[1].Title != "Scheme B" {
		t.Fatalf("recommendations should follow title order: %v", dashboard.RecommendedSchemes)
	}
	if dashboard.TotalSchemes != 4 {
		t.Fatalf("expected 4 schemes, got %d", dashboard.TotalSchemes)
	}

	if err := uninterested.Get("/farmer/dashboard").Do(&dashboard); err != nil {
		t.Fatal(err)
	}
	if len(dashboard.RecommendedSchemes) != 0 {
		t.Fatalf("no interests means no recommendations: %v", dashboard.RecommendedSchemes)
	}
}
