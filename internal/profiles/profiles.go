package profiles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"photoaudit/internal/records"
)

// Source selects how subjects are discovered.
type Source string

const (
	// SourceStorage lists subject folders under the blob store root.
	SourceStorage Source = "storage"
	// SourceRecords scans the profiles sub-collections across all users.
	SourceRecords Source = "records"
	// SourceUsers walks users and their nested profiles; the default for
	// batch runs because it carries REDCap metadata along.
	SourceUsers Source = "users"
)

// ParseSource validates a configuration or flag value.
func ParseSource(raw string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(raw))) {
	case SourceStorage:
		return SourceStorage, nil
	case SourceRecords:
		return SourceRecords, nil
	case SourceUsers, "":
		return SourceUsers, nil
	}
	return "", fmt.Errorf("profile source: unsupported value %q", raw)
}

// Profile is one subject to process, with whatever study metadata the source
// could supply.
type Profile struct {
	UserID        string
	ProfileID     string
	RedcapCode    string
	Email         string
	UserCreatedAt time.Time
}

// UserDirectory is the record-store surface enumeration consumes.
type UserDirectory interface {
	Users(ctx context.Context, since *time.Time) ([]records.User, error)
	ProfileIDsOfUser(ctx context.Context, userID string) ([]string, error)
	AllProfileIDs(ctx context.Context) ([]string, error)
}

// PrefixLister is the blob-store surface enumeration consumes.
type PrefixLister interface {
	SubjectPrefixes(ctx context.Context, root string) ([]string, error)
}

// Options bounds one enumeration.
type Options struct {
	Source Source
	Root   string

	// Since is applied server-side; Until is re-checked client-side because
	// the backing store cannot combine both bounds with ordering.
	Since *time.Time
	Until *time.Time

	LimitUsers           int
	LimitProfilesPerUser int
	LimitProfiles        int
}

// Enumerator discovers subjects from the configured source.
type Enumerator struct {
	Users UserDirectory
	Blobs PrefixLister
}

// Enumerate returns a deduplicated, deterministically ordered subject set.
func (e *Enumerator) Enumerate(ctx context.Context, opts Options) ([]Profile, error) {
	switch opts.Source {
	case SourceStorage:
		return e.fromStorage(ctx, opts)
	case SourceRecords:
		return e.fromRecords(ctx, opts)
	case SourceUsers, "":
		return e.fromUsers(ctx, opts)
	}
	return nil, fmt.Errorf("profile source: unsupported value %q", opts.Source)
}

func (e *Enumerator) fromStorage(ctx context.Context, opts Options) ([]Profile, error) {
	subjects, err := e.Blobs.SubjectPrefixes(ctx, opts.Root)
	if err != nil {
		return nil, fmt.Errorf("list subject prefixes: %w", err)
	}
	out := make([]Profile, 0, len(subjects))
	seen := map[string]struct{}{}
	for _, id := range subjects {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Profile{ProfileID: id})
	}
	return capProfiles(out, opts.LimitProfiles), nil
}

func (e *Enumerator) fromRecords(ctx context.Context, opts Options) ([]Profile, error) {
	ids, err := e.Users.AllProfileIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan profile ids: %w", err)
	}
	out := make([]Profile, 0, len(ids))
	seen := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Profile{ProfileID: id})
	}
	return capProfiles(out, opts.LimitProfiles), nil
}

func (e *Enumerator) fromUsers(ctx context.Context, opts Options) ([]Profile, error) {
	users, err := e.Users.Users(ctx, opts.Since)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	if opts.Until != nil {
		filtered := users[:0]
		for _, u := range users {
			if !u.CreatedAt.IsZero() && u.CreatedAt.After(*opts.Until) {
				continue
			}
			filtered = append(filtered, u)
		}
		users = filtered
	}
	if opts.LimitUsers > 0 && len(users) > opts.LimitUsers {
		users = users[:opts.LimitUsers]
	}

	var out []Profile
	seen := map[string]struct{}{}
	for _, u := range users {
		ids, err := e.Users.ProfileIDsOfUser(ctx, u.ID)
		if err != nil {
			// One unreadable user must not sink a batch run.
			continue
		}
		if opts.LimitProfilesPerUser > 0 && len(ids) > opts.LimitProfilesPerUser {
			ids = ids[:opts.LimitProfilesPerUser]
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, Profile{
				UserID:        u.ID,
				ProfileID:     id,
				RedcapCode:    resolveField(u.Data, redcapLookup),
				Email:         resolveField(u.Data, emailLookup),
				UserCreatedAt: u.CreatedAt,
			})
		}
	}
	return capProfiles(out, opts.LimitProfiles), nil
}

func capProfiles(profiles []Profile, limit int) []Profile {
	if limit > 0 && len(profiles) > limit {
		return profiles[:limit]
	}
	return profiles
}
