package blobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// Metadata keys under which download tokens have historically been stored.
const (
	tokenMetadataKey       = "firebaseStorageDownloadTokens"
	legacyTokenMetadataKey = "downloadTokens"
)

// Object is one stored photo file.
type Object struct {
	Key      string
	Size     int64
	Created  time.Time
	Metadata map[string]string
}

// Client reads objects and custom metadata from one bucket.
type Client struct {
	bucket *storage.BucketHandle
	name   string
}

// NewClient wraps an explicitly constructed bucket handle.
func NewClient(bucket *storage.BucketHandle, bucketName string) *Client {
	return &Client{bucket: bucket, name: bucketName}
}

// BucketName returns the bucket this client reads from.
func (c *Client) BucketName() string {
	return c.name
}

// SubjectPrefixes lists the subject folders one level below root using a
// delimiter query and returns their ids in listing order.
func (c *Client) SubjectPrefixes(ctx context.Context, root string) ([]string, error) {
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	iter := c.bucket.Objects(ctx, &storage.Query{Prefix: root, Delimiter: "/"})

	var subjects []string
	for {
		attrs, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list prefixes under %s: %w", root, err)
		}
		if attrs.Prefix == "" {
			continue
		}
		subject := strings.TrimSuffix(strings.TrimPrefix(attrs.Prefix, root), "/")
		if subject != "" {
			subjects = append(subjects, subject)
		}
	}
	return subjects, nil
}

// List returns objects under prefix. A positive limit truncates the listing
// deterministically in storage order.
func (c *Client) List(ctx context.Context, prefix string, limit int) ([]Object, error) {
	iter := c.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	var out []Object
	for {
		attrs, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects under %s: %w", prefix, err)
		}
		if attrs.Name == "" {
			continue
		}
		out = append(out, fromAttrs(attrs))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Attrs fetches one object's metadata.
func (c *Client) Attrs(ctx context.Context, key string) (Object, error) {
	attrs, err := c.bucket.Object(key).Attrs(ctx)
	if err != nil {
		return Object{}, fmt.Errorf("object attrs %s: %w", key, err)
	}
	return fromAttrs(attrs), nil
}

// Size returns one object's byte size.
func (c *Client) Size(ctx context.Context, key string) (int64, error) {
	obj, err := c.Attrs(ctx, key)
	if err != nil {
		return 0, err
	}
	return obj.Size, nil
}

// SetMetadata replaces the object's custom metadata map.
func (c *Client) SetMetadata(ctx context.Context, key string, metadata map[string]string) error {
	_, err := c.bucket.Object(key).Update(ctx, storage.ObjectAttrsToUpdate{Metadata: metadata})
	if err != nil {
		return fmt.Errorf("update metadata %s: %w", key, err)
	}
	return nil
}

// DownloadToken resolves the object's download token. An existing token in
// custom metadata wins (first entry of a comma-separated list); otherwise a
// fresh UUID is minted and stored when mint is true, or "" is returned when
// it is not.
func (c *Client) DownloadToken(ctx context.Context, key string, mint bool) (string, error) {
	obj, err := c.Attrs(ctx, key)
	if err != nil {
		return "", err
	}
	if token := ExistingToken(obj.Metadata); token != "" {
		return token, nil
	}
	if !mint {
		return "", nil
	}

	token := uuid.NewString()
	metadata := make(map[string]string, len(obj.Metadata)+1)
	for k, v := range obj.Metadata {
		metadata[k] = v
	}
	metadata[tokenMetadataKey] = token
	if err := c.SetMetadata(ctx, key, metadata); err != nil {
		return "", err
	}
	return token, nil
}

// ExistingToken extracts a previously stored download token from custom
// metadata, or "" when none is present.
func ExistingToken(metadata map[string]string) string {
	for _, key := range []string{tokenMetadataKey, legacyTokenMetadataKey} {
		raw, ok := metadata[key]
		if !ok {
			continue
		}
		first, _, _ := strings.Cut(raw, ",")
		if token := strings.TrimSpace(first); token != "" {
			return token
		}
	}
	return ""
}

func fromAttrs(attrs *storage.ObjectAttrs) Object {
	return Object{
		Key:      attrs.Name,
		Size:     attrs.Size,
		Created:  attrs.Created,
		Metadata: attrs.Metadata,
	}
}
