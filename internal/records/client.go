package records

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// UsersCollection holds study participants; each user document carries a
// profiles sub-collection.
const UsersCollection = "users"

// Client wraps a Firestore handle with the queries and batched writes the
// reconciliation tools need. Construct one per run; it holds no state beyond
// the connection.
type Client struct {
	fs *firestore.Client
}

// NewClient wraps an explicitly constructed Firestore client.
func NewClient(fs *firestore.Client) *Client {
	return &Client{fs: fs}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.fs == nil {
		return nil
	}
	return c.fs.Close()
}

// ForProfile returns every photoHistory document for one subject.
func (c *Client) ForProfile(ctx context.Context, profileID string) ([]Record, error) {
	query := c.fs.Collection(Collection).Where("profileId", "==", profileID)
	return c.collect(ctx, query)
}

// RejectedForProfile returns the subject's documents with rejected == true.
func (c *Client) RejectedForProfile(ctx context.Context, profileID string) ([]Record, error) {
	query := c.fs.Collection(Collection).
		Where("profileId", "==", profileID).
		Where("rejected", "==", true)
	return c.collect(ctx, query)
}

func (c *Client) collect(ctx context.Context, query firestore.Query) ([]Record, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []Record
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate %s: %w", Collection, err)
		}
		out = append(out, fromSnapshot(doc))
	}
	return out, nil
}

// Create writes new backfilled documents in capped, sequentially committed
// batches. It returns the number of documents created; on a mid-run commit
// failure that count covers the batches already applied.
func (c *Client) Create(ctx context.Context, newRecords []NewRecord) (int, error) {
	created := 0
	for _, group := range chunks(newRecords, BatchCap) {
		batch := c.fs.Batch()
		for _, nr := range group {
			ref := c.fs.Collection(Collection).NewDoc()
			data := map[string]any{
				"id":             ref.ID,
				"profileId":      nr.ProfileID,
				"date":           nr.Date,
				"capturedAt":     nr.Date,
				"imageUrl":       nr.ImageURL,
				"storagePath":    nr.StoragePath,
				"rejected":       nr.Rejected,
				"backfillSource": SourceStorage,
				"backfilledAt":   firestore.ServerTimestamp,
			}
			if nr.Rejected {
				data["summary"] = nr.Summary
				data["message"] = nr.Message
				data["inferenceMeta"] = map[string]any{"message": nr.InferenceMessage}
			}
			batch.Set(ref, data)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return created, fmt.Errorf("commit create batch: %w", err)
		}
		created += len(group)
	}
	return created, nil
}

// PatchRejectedText merge-patches default outcome text into existing
// backfilled documents. Sibling inferenceMeta fields survive the merge.
func (c *Client) PatchRejectedText(ctx context.Context, patches []Patch) (int, error) {
	patched := 0
	for _, group := range chunks(patches, BatchCap) {
		batch := c.fs.Batch()
		for _, p := range group {
			ref := c.fs.Collection(Collection).Doc(p.ID)
			batch.Set(ref, map[string]any{
				"summary":             p.Summary,
				"message":             p.Message,
				"inferenceMeta":       map[string]any{"message": p.InferenceMessage},
				"backfilledPatchedAt": firestore.ServerTimestamp,
			}, firestore.MergeAll)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return patched, fmt.Errorf("commit patch batch: %w", err)
		}
		patched += len(group)
	}
	return patched, nil
}

// Delete removes documents by id in capped batches.
func (c *Client) Delete(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, group := range chunks(ids, BatchCap) {
		batch := c.fs.Batch()
		for _, id := range group {
			batch.Delete(c.fs.Collection(Collection).Doc(id))
		}
		if _, err := batch.Commit(ctx); err != nil {
			return deleted, fmt.Errorf("commit delete batch: %w", err)
		}
		deleted += len(group)
	}
	return deleted, nil
}

// AllProfileIDs scans the profiles sub-collections across all users via a
// collection-group query and returns deduplicated document ids.
func (c *Client) AllProfileIDs(ctx context.Context) ([]string, error) {
	iter := c.fs.CollectionGroup("profiles").Select().Documents(ctx)
	defer iter.Stop()

	seen := map[string]struct{}{}
	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate profiles group: %w", err)
		}
		if _, ok := seen[doc.Ref.ID]; ok {
			continue
		}
		seen[doc.Ref.ID] = struct{}{}
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}

// Users returns users ordered by createdAt, filtered server-side by the
// optional since bound. An until bound cannot be combined with since in one
// Firestore query, so callers apply it client-side.
func (c *Client) Users(ctx context.Context, since *time.Time) ([]User, error) {
	query := c.fs.Collection(UsersCollection).Query
	if since != nil {
		query = query.
			Where("createdAt", ">=", *since).
			OrderBy("createdAt", firestore.Asc)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate %s: %w", UsersCollection, err)
		}
		data := doc.Data()
		out = append(out, User{
			ID:        doc.Ref.ID,
			CreatedAt: timeField(data, "createdAt"),
			Data:      data,
		})
	}
	return out, nil
}

// ProfileIDsOfUser lists the ids of one user's profiles sub-collection.
func (c *Client) ProfileIDsOfUser(ctx context.Context, userID string) ([]string, error) {
	iter := c.fs.Collection(UsersCollection).Doc(userID).Collection("profiles").Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate profiles of %s: %w", userID, err)
		}
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}

func fromSnapshot(doc *firestore.DocumentSnapshot) Record {
	data := doc.Data()
	rec := Record{
		ID:             doc.Ref.ID,
		ProfileID:      stringField(data, "profileId"),
		Date:           timeField(data, "date"),
		CapturedAt:     timeField(data, "capturedAt"),
		ImageURL:       stringField(data, "imageUrl"),
		StoragePath:    stringField(data, "storagePath"),
		Rejected:       boolField(data, "rejected"),
		Summary:        stringField(data, "summary"),
		Message:        stringField(data, "message"),
		BackfillSource: stringField(data, "backfillSource"),
		CreateTime:     doc.CreateTime,
		Data:           data,
	}
	if meta, ok := data["inferenceMeta"].(map[string]any); ok {
		rec.InferenceMessage = stringField(meta, "message")
	}
	return rec
}

func stringField(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func boolField(data map[string]any, key string) bool {
	if b, ok := data[key].(bool); ok {
		return b
	}
	return false
}

func timeField(data map[string]any, key string) time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return v
	case string:
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
			return ts
		}
	}
	return time.Time{}
}
