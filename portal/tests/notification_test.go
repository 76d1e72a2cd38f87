package tests

import (
	"fmt"
	"testing"
)

func unreadFor(c *client) ([]notification, error) {
	var dashboard farmerDashboard
	if err := c.Get("/farmer/dashboard").Do(&dashboard); err != nil {
		return nil, err
	}
	return dashboard.UnreadNotifications, nil
}

func TestNotificationBroadcast(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	farmers := make([]client, 0, 3)
	for i := 0; i < 3; i++ {
		farmer, err := env.newFarmer(fmt.Sprintf("recipient%d", i))
		if err != nil {
			t.Fatal(err)
		}
		farmers = append(farmers, farmer)
	}

	notificationId, err := admin.sendNotification("subsidy deadline extended", "info")
	if err != nil {
		t.Fatal(err)
	}

	for i := range farmers {
		unread, err := unreadFor(&farmers[i])
		if err != nil {
			t.Fatal(err)
		}
		if len(unread) != 1 || unread[0].Id != notificationId {
			t.Fatalf("farmer %d should have 1 unread notification: %v", i, unread)
		}
		if unread[0].Message != "subsidy deadline extended" {
			t.Fatalf("wrong message: %v", unread[0].Message)
		}
	}

	// A farmer registered after the broadcast is not a recipient.
	late, err := env.newFarmer("latecomer")
	if err != nil {
		t.Fatal(err)
	}
	unread, err := unreadFor(&late)
	if err != nil {
		t.Fatal(err)
	}
	if len(unread) != 0 {
		t.Fatalf("late farmer should have no unread notifications: %v", unread)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	farmerA, err := env.newFarmer("reader_a")
	if err != nil {
		t.Fatal(err)
	}
	farmerB, err := env.newFarmer("reader_b")
	if err != nil {
		t.Fatal(err)
	}

	notificationId, err := admin.sendNotification("new crop advisory", "info")
	if err != nil {
		t.Fatal(err)
	}

	markRead := func(c *client) error {
		return c.Post(fmt.Sprintf("/farmer/notifications/%v/read", notificationId)).Do(nil)
	}

	if err := markRead(&farmerA); err != nil {
		t.Fatal(err)
	}

	// Marking read flips only the caller's receipt.
	unread, err := unreadFor(&farmerA)
	if err != nil {
		t.Fatal(err)
	}
	if len(unread) != 0 {
		t.Fatalf("notification should be read for farmer a: %v", unread)
	}

	unread, err = unreadFor(&farmerB)
	if err != nil {
		t.Fatal(err)
	}
	if len(unread) != 1 {
		t.Fatalf("notification should still be unread for farmer b: %v", unread)
	}

	// Marking read twice is harmless.
	if err := markRead(&farmerA); err != nil {
		t.Fatal(err)
	}

	missing := "00000000-0000-0000-0000-000000000002"
	err = farmerA.Post(fmt.Sprintf("/farmer/notifications/%v/read", missing)).Do(nil)
	if err == nil {
		t.Fatal("marking a missing notification read should fail")
	}
}

func TestNotificationValidation(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := admin.sendNotification("   ", "info"); err == nil {
		t.Fatal("blank message should be rejected")
	}

	farmer, err := env.newFarmer("sender")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := farmer.sendNotification("hello", "info"); err == nil {
		t.Fatal("farmers cannot broadcast notifications")
	}
}
