package models

import (
	"fmt"
	"time"
)

// apiTokenGrace is how close to expiry a Members Only API token is still
// considered usable. Tokens within a day of expiring force reauthentication.
const apiTokenGrace = 24 * time.Hour

// User is either a Calchart account or a Members Only account.
//
// A Calchart user is created locally with a password. A Members Only user is
// imported from the Members Only API: no password is set and an API token is
// used to communicate with Members Only on the user's behalf.
type User struct {
	base

	username            string
	passwordHash        string
	membersOnlyUsername string
	apiToken            string
	apiTokenExpiry      *time.Time
	superuser           bool
	viewpsheetSettings  string
}

// NewUser creates a local Calchart user with the given sequence and username.
func NewUser(sequence int, username string) *User {
	return &User{
		base:               newBase(sequence),
		username:           username,
		viewpsheetSettings: "{}",
	}
}

// NewMembersOnlyUser creates a user imported from Members Only.
//
// The local username may differ from the Members Only username when the
// latter is already taken by a Calchart account.
func NewMembersOnlyUser(sequence int, username, membersOnlyUsername, apiToken string, ttlDays int) *User {
	user := NewUser(sequence, username)
	user.membersOnlyUsername = membersOnlyUsername
	user.apiToken = apiToken
	user.SetExpiry(ttlDays)
	return user
}

func (u *User) Username() string            { return u.username }
func (u *User) PasswordHash() string        { return u.passwordHash }
func (u *User) SetPasswordHash(h string)    { u.passwordHash = h }
func (u *User) MembersOnlyUsername() string { return u.membersOnlyUsername }
func (u *User) APIToken() string            { return u.apiToken }
func (u *User) SetAPIToken(token string)    { u.apiToken = token }
func (u *User) APITokenExpiry() *time.Time  { return u.apiTokenExpiry }
func (u *User) IsSuperuser() bool           { return u.superuser }
func (u *User) SetSuperuser(s bool)         { u.superuser = s }
func (u *User) ViewpsheetSettings() string  { return u.viewpsheetSettings }

// SetViewpsheetSettings stores the user's viewpsheet preferences as JSON text.
func (u *User) SetViewpsheetSettings(settings string) {
	if settings == "" {
		settings = "{}"
	}
	u.viewpsheetSettings = settings
}

// SetMembersOnlyUsername records the Members Only identity this user is bound to.
func (u *User) SetMembersOnlyUsername(username string) {
	u.membersOnlyUsername = username
}

// SetExpiry sets a Members Only user's API token expiry to ttlDays from now.
// It is a no-op for local users.
func (u *User) SetExpiry(ttlDays int) {
	if !u.IsMembersOnlyUser() {
		return
	}
	expiry := time.Now().Add(time.Duration(ttlDays) * 24 * time.Hour)
	u.apiTokenExpiry = &expiry
}

// SetAPITokenExpiry sets the raw expiry timestamp, used when loading from storage.
func (u *User) SetAPITokenExpiry(t *time.Time) {
	u.apiTokenExpiry = t
}

// IsMembersOnlyUser reports whether this user is a Members Only user.
//
// For the purposes of development, a superuser is a Members Only user.
func (u *User) IsMembersOnlyUser() bool {
	return u.superuser || len(u.apiToken) > 0
}

// HasValidAPIToken reports whether this user's API token can still be used.
//
// Also returns true if this user is not a Members Only user.
func (u *User) HasValidAPIToken() bool {
	if u.superuser || !u.IsMembersOnlyUser() {
		return true
	}
	if u.apiTokenExpiry == nil {
		return false
	}
	return time.Now().Add(apiTokenGrace).Before(*u.apiTokenExpiry)
}

// DisplayUsername returns the username to show in the UI: the Members Only
// username for imported accounts, the local username otherwise.
func (u *User) DisplayUsername() string {
	if u.superuser || !u.IsMembersOnlyUser() {
		return u.username
	}
	return u.membersOnlyUsername
}

// Validate checks that the user has a username.
func (u *User) Validate() error {
	if u.username == "" {
		return fmt.Errorf("username is required")
	}
	return nil
}
