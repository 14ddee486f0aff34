package testsupport

import (
	"context"
	"sort"
	"time"

	"photoaudit/internal/records"
)

// FakeUserDirectory answers the user/profile enumeration queries.
type FakeUserDirectory struct {
	Accounts    []records.User
	Profiles    map[string][]string
	AllProfiles []string
}

// Users mirrors the server-side query: optional since lower bound, ordered
// by creation time.
func (f *FakeUserDirectory) Users(_ context.Context, since *time.Time) ([]records.User, error) {
	var out []records.User
	for _, u := range f.Accounts {
		if since != nil && u.CreatedAt.Before(*since) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ProfileIDsOfUser lists one user's profile ids.
func (f *FakeUserDirectory) ProfileIDsOfUser(_ context.Context, userID string) ([]string, error) {
	return f.Profiles[userID], nil
}

// AllProfileIDs mirrors the collection-group scan.
func (f *FakeUserDirectory) AllProfileIDs(_ context.Context) ([]string, error) {
	return f.AllProfiles, nil
}
