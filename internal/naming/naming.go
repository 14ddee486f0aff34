package naming

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// KeyRoot is the blob store prefix all photo objects live under.
const KeyRoot = "photoHistory/"

var imageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
}

// IsImageName reports whether the filename carries a recognized image extension.
func IsImageName(name string) bool {
	ext := strings.ToLower(extension(name))
	_, ok := imageExtensions[ext]
	return ok
}

// IsRejectedName reports whether the filename marks an on-device quality
// rejection (*_rejected.<ext>), case-insensitively.
func IsRejectedName(name string) bool {
	base := strings.ToLower(baseName(name))
	if !IsImageName(base) {
		return false
	}
	stem := strings.TrimSuffix(base, "."+extension(base))
	return strings.HasSuffix(stem, "_rejected")
}

// InferCaptureTime extracts the capture instant embedded in a blob filename.
// The first digit run of exactly 13 digits is read as epoch milliseconds and
// a run of exactly 10 digits as epoch seconds. The boolean is false when no
// such run exists or it does not parse.
func InferCaptureTime(name string) (time.Time, bool) {
	base := baseName(name)
	for i := 0; i < len(base); i++ {
		if base[i] < '0' || base[i] > '9' {
			continue
		}
		j := i
		for j < len(base) && base[j] >= '0' && base[j] <= '9' {
			j++
		}
		run := base[i:j]
		switch len(run) {
		case 13:
			ms, err := strconv.ParseInt(run, 10, 64)
			if err != nil {
				return time.Time{}, false
			}
			return time.UnixMilli(ms).UTC(), true
		case 10:
			sec, err := strconv.ParseInt(run, 10, 64)
			if err != nil {
				return time.Time{}, false
			}
			return time.Unix(sec, 0).UTC(), true
		}
		i = j
	}
	return time.Time{}, false
}

// SubjectFromKey returns the subject id segment of a photoHistory blob key,
// or "" when the key has no such segment.
func SubjectFromKey(key string) string {
	parts := strings.Split(key, "/")
	if len(parts) < 3 || parts[0]+"/" != KeyRoot {
		return ""
	}
	return parts[1]
}

// SubjectPrefix builds the listing prefix for one subject's blobs.
func SubjectPrefix(root, subjectID string) string {
	if root == "" {
		root = KeyRoot
	}
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root + subjectID + "/"
}

// BuildDownloadURL constructs a signed download URL for a storage path. The
// token query parameter is omitted when token is empty.
func BuildDownloadURL(bucket, storagePath, token string) string {
	var b strings.Builder
	b.WriteString("https://firebasestorage.googleapis.com/v0/b/")
	b.WriteString(bucket)
	b.WriteString("/o/")
	b.WriteString(url.PathEscape(storagePath))
	b.WriteString("?alt=media")
	if token != "" {
		b.WriteString("&token=")
		b.WriteString(url.QueryEscape(token))
	}
	return b.String()
}

// DecodeStoragePath recovers the storage path embedded in a signed download
// URL. It locates the /o/ marker, cuts at the first '?', and percent-decodes
// the remainder. The boolean is false on any parse failure.
func DecodeStoragePath(signedURL string) (string, bool) {
	const marker = "/o/"
	idx := strings.Index(signedURL, marker)
	if idx < 0 {
		return "", false
	}
	encoded := signedURL[idx+len(marker):]
	if q := strings.IndexByte(encoded, '?'); q >= 0 {
		encoded = encoded[:q]
	}
	if encoded == "" {
		return "", false
	}
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return "", false
	}
	return decoded, true
}

// StripToken removes the token query parameter from a signed URL so two URLs
// for the same object compare equal regardless of token rotation.
func StripToken(signedURL string) string {
	if cut, _, found := strings.Cut(signedURL, "&token="); found {
		return cut
	}
	if cut, _, found := strings.Cut(signedURL, "?token="); found {
		return cut
	}
	return signedURL
}

func baseName(name string) string {
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func extension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return name[idx+1:]
}
