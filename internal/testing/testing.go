// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/calband/calchart/internal/models"
)

// MockCommitteeChecker is a test double for [membersonly.CommitteeChecker].
//
// Committees maps committee names to membership; Err, when set, is returned
// from every check.
type MockCommitteeChecker struct {
	Committees map[string]bool
	Err        error
	Calls      int
}

func (m *MockCommitteeChecker) CheckCommittee(ctx context.Context, user *models.User, committee string) (bool, error) {
	m.Calls++
	if m.Err != nil {
		return false, m.Err
	}
	if user.IsSuperuser() {
		return true, nil
	}
	if !user.IsMembersOnlyUser() {
		return false, nil
	}
	return m.Committees[committee], nil
}

// StuntChecker returns a checker granting STUNT membership.
func StuntChecker() *MockCommitteeChecker {
	return &MockCommitteeChecker{Committees: map[string]bool{"STUNT": true}}
}

// NoCommitteeChecker returns a checker granting no memberships.
func NoCommitteeChecker() *MockCommitteeChecker {
	return &MockCommitteeChecker{Committees: map[string]bool{}}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
