// internal/adapters/out/gcs/helper_repository_gcs.go
package gcs

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	defaultPublicBaseURL   = "https://storage.googleapis.com"
	defaultFirebaseBaseURL = "https://firebasestorage.googleapis.com"

	// metadata key the Firebase download endpoint checks the token against
	firebaseTokenKey = "firebaseStorageDownloadTokens"
)

// normalizeObjectPath trims spaces and leading slashes; ".." segments are rejected.
func normalizeObjectPath(p string) (string, bool) {
	p = strings.TrimLeft(strings.TrimSpace(p), "/")
	if p == "" {
		return "", false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", false
		}
	}
	return p, true
}

// publicObjectURL encodes the path but keeps "/" separators.
func publicObjectURL(base, bucket, objectPath string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = defaultPublicBaseURL
	}
	parts := strings.Split(objectPath, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, strings.Join(parts, "/"))
}

// firebaseDownloadURL is the token URL the Firebase client SDKs return.
// The whole object path is a single escaped segment.
func firebaseDownloadURL(base, bucket, objectPath, token string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = defaultFirebaseBaseURL
	}
	q := url.Values{}
	q.Set("alt", "media")
	q.Set("token", token)
	return fmt.Sprintf("%s/v0/b/%s/o/%s?%s", base, bucket, url.PathEscape(objectPath), q.Encode())
}

// firstToken picks the first token of a comma separated token list.
func firstToken(md map[string]string) string {
	if md == nil {
		return ""
	}
	for _, t := range strings.Split(md[firebaseTokenKey], ",") {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return ""
}
