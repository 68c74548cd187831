package objectstore

import (
	"net/url"
	"strings"
)

// KeyFromRef resolves a stored artifact reference back to a bucket key.
// Refs come in three shapes: a resources-domain URL, a raw S3 URL
// (https://<bucket>.s3.<region>.amazonaws.com/<key>), or a bare key from an
// older deployment. Returns "" when nothing can be resolved; deletes treat
// that as a skip, never a failure.
func KeyFromRef(ref, publicBase, region string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	if publicBase != "" && strings.HasPrefix(ref, publicBase+"/") {
		return strings.TrimPrefix(ref, publicBase+"/")
	}

	if region != "" {
		s3Marker := ".s3." + region + ".amazonaws.com/"
		if idx := strings.Index(ref, s3Marker); idx != -1 {
			return ref[idx+len(s3Marker):]
		}
	}

	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return strings.TrimPrefix(ref, "/")
	}

	return ""
}

// ParentPrefixFromRef returns the key prefix holding the referenced object,
// i.e. the ref's path with the filename removed. Used to delete a replaced
// artifact's whole folder. Returns "" for refs with no parent.
func ParentPrefixFromRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	path := ref
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		u, err := url.Parse(ref)
		if err != nil {
			return ""
		}
		path = u.Path
	}

	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) <= 1 {
		return ""
	}

	return strings.Join(parts[:len(parts)-1], "/")
}
