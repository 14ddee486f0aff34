package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"photoaudit/internal/config"
	"photoaudit/internal/profiles"
)

const dateLayout = "2006-01-02"

// parseSince interprets a YYYY-MM-DD flag as the start of that UTC day.
func parseSince(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse --since: %w", err)
	}
	return &t, nil
}

// parseUntil interprets a YYYY-MM-DD flag as the end of that UTC day, so the
// bound is inclusive.
func parseUntil(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse --until: %w", err)
	}
	end := t.Add(24*time.Hour - time.Millisecond)
	return &end, nil
}

// subjectFlags are the enumeration flags shared by the batch commands.
type subjectFlags struct {
	profileID            string
	since                string
	until                string
	source               string
	prefix               string
	bucket               string
	limitUsers           int
	limitProfilesPerUser int
	limitProfiles        int
}

func (f *subjectFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.profileID, "profile-id", "", "Process a single subject instead of enumerating")
	flags.StringVar(&f.since, "since", "", "Only users created on or after this date (YYYY-MM-DD)")
	flags.StringVar(&f.until, "until", "", "Only users created on or before this date (YYYY-MM-DD)")
	flags.StringVar(&f.source, "profile-source", "", "Where to discover subjects: users, records, or storage")
	flags.StringVar(&f.prefix, "prefix", "", "Blob key prefix (default from config)")
	flags.StringVar(&f.bucket, "bucket", "", "Storage bucket (default from config)")
	flags.IntVar(&f.limitUsers, "limit-users", 0, "Stop after this many users (0 = no limit)")
	flags.IntVar(&f.limitProfilesPerUser, "limit-profiles-per-user", 0, "Cap profiles taken per user (0 = no limit)")
	flags.IntVar(&f.limitProfiles, "limit-profiles", 0, "Cap total subjects processed (0 = no limit)")
}

func (f *subjectFlags) resolvePrefix(cfg *config.Config) string {
	prefix := strings.TrimSpace(f.prefix)
	if prefix == "" {
		return cfg.Photos.Prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// subjects resolves the flag set to the list of subjects a command should
// process.
func (f *subjectFlags) subjects(ctx context.Context, cfg *config.Config, cl *clients) ([]profiles.Profile, error) {
	if id := strings.TrimSpace(f.profileID); id != "" {
		return []profiles.Profile{{ProfileID: id}}, nil
	}

	raw := f.source
	if strings.TrimSpace(raw) == "" {
		raw = cfg.Photos.ProfileSource
	}
	source, err := profiles.ParseSource(raw)
	if err != nil {
		return nil, err
	}

	since, err := parseSince(f.since)
	if err != nil {
		return nil, err
	}
	until, err := parseUntil(f.until)
	if err != nil {
		return nil, err
	}

	e := &profiles.Enumerator{Users: cl.Records, Blobs: cl.Blobs}
	return e.Enumerate(ctx, profiles.Options{
		Source:               source,
		Root:                 f.resolvePrefix(cfg),
		Since:                since,
		Until:                until,
		LimitUsers:           f.limitUsers,
		LimitProfilesPerUser: f.limitProfilesPerUser,
		LimitProfiles:        f.limitProfiles,
	})
}
