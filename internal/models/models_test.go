package models

import (
	"testing"
	"time"
)

func TestUser(t *testing.T) {
	t.Run("LocalUser", func(t *testing.T) {
		user := NewUser(1, "bandie")

		if user.IsMembersOnlyUser() {
			t.Error("local user should not be a Members Only user")
		}
		if !user.HasValidAPIToken() {
			t.Error("local users always have a valid token")
		}
		if user.DisplayUsername() != "bandie" {
			t.Errorf("expected display username bandie, got %s", user.DisplayUsername())
		}

		// Expiry is meaningless for local users
		user.SetExpiry(5)
		if user.APITokenExpiry() != nil {
			t.Error("SetExpiry should be a no-op for local users")
		}
	})

	t.Run("MembersOnlyUser", func(t *testing.T) {
		user := NewMembersOnlyUser(1, "drum_major", "drum_major", "token123", 5)

		if !user.IsMembersOnlyUser() {
			t.Error("expected a Members Only user")
		}
		if user.APITokenExpiry() == nil {
			t.Fatal("expected an API token expiry")
		}

		want := time.Now().Add(5 * 24 * time.Hour)
		got := *user.APITokenExpiry()
		if got.Before(want.Add(-time.Minute)) || got.After(want.Add(time.Minute)) {
			t.Errorf("expiry should be ~5 days out, got %v", got)
		}

		if !user.HasValidAPIToken() {
			t.Error("freshly imported token should be valid")
		}
	})

	t.Run("ExpiringToken", func(t *testing.T) {
		user := NewMembersOnlyUser(1, "drum_major", "drum_major", "token123", 1)

		// Tokens within a day of expiry are treated as invalid
		if user.HasValidAPIToken() {
			t.Error("token expiring within a day should be invalid")
		}
	})

	t.Run("Superuser", func(t *testing.T) {
		user := NewUser(1, "admin")
		user.SetSuperuser(true)

		if !user.IsMembersOnlyUser() {
			t.Error("superusers count as Members Only users")
		}
		if !user.HasValidAPIToken() {
			t.Error("superusers always have a valid token")
		}
		if user.DisplayUsername() != "admin" {
			t.Errorf("superusers display their local username, got %s", user.DisplayUsername())
		}
	})

	t.Run("DisplayUsername", func(t *testing.T) {
		user := NewMembersOnlyUser(1, "drum_major_", "drum_major", "token123", 5)
		if user.DisplayUsername() != "drum_major" {
			t.Errorf("expected Members Only username, got %s", user.DisplayUsername())
		}
	})

	t.Run("Validate", func(t *testing.T) {
		user := NewUser(1, "")
		if err := user.Validate(); err == nil {
			t.Error("user without username should fail validation")
		}
	})
}

func TestShow(t *testing.T) {
	t.Run("ApplyData", func(t *testing.T) {
		show := NewShow(1, "Fall Show", "owner-id", false)
		data := []byte(`{"slug": "fall-show", "name": "Fall Show", "isBand": true, "published": true, "numDots": 10}`)

		if err := show.ApplyData(data); err != nil {
			t.Fatalf("failed to apply data: %v", err)
		}

		if show.Slug() != "fall-show" {
			t.Errorf("expected slug fall-show, got %s", show.Slug())
		}
		if !show.IsBand() {
			t.Error("band flag should sync from the document")
		}
		if !show.Published() {
			t.Error("published flag should sync from the document")
		}
		if !show.IsInitialized() {
			t.Error("show should be initialized after ApplyData")
		}

		doc, err := show.Document()
		if err != nil {
			t.Fatalf("failed to decode document: %v", err)
		}
		if doc["numDots"] != float64(10) {
			t.Errorf("document should preserve extra fields, got %v", doc["numDots"])
		}
	})

	t.Run("ApplyDataInvalid", func(t *testing.T) {
		show := NewShow(1, "Fall Show", "owner-id", false)
		if err := show.ApplyData([]byte("not json")); err == nil {
			t.Error("invalid JSON should fail")
		}
		if show.IsInitialized() {
			t.Error("failed ApplyData should not set data")
		}
	})

	t.Run("DocumentUninitialized", func(t *testing.T) {
		show := NewShow(1, "Fall Show", "owner-id", false)
		if _, err := show.Document(); err == nil {
			t.Error("uninitialized show has no document")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := NewShow(1, "", "owner-id", false).Validate(); err == nil {
			t.Error("show without name should fail validation")
		}
		if err := NewShow(1, "Fall Show", "", false).Validate(); err == nil {
			t.Error("show without owner should fail validation")
		}
	})
}

func TestSession(t *testing.T) {
	t.Run("Expiry", func(t *testing.T) {
		session := NewSession(1, "token", "csrf", "user-id", time.Hour)
		if session.IsExpired() {
			t.Error("fresh session should not be expired")
		}

		session.SetExpiresAt(time.Now().Add(-time.Minute))
		if !session.IsExpired() {
			t.Error("past expiry should report expired")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := NewSession(1, "", "csrf", "user-id", time.Hour).Validate(); err == nil {
			t.Error("session without token should fail validation")
		}
		if err := NewSession(1, "token", "csrf", "", time.Hour).Validate(); err == nil {
			t.Error("session without user should fail validation")
		}
	})
}
