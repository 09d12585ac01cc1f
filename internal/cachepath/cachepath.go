package cachepath

import (
	"crypto/md5"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// ID returns the thumbnail identifier for a canonical file URI: the 32
// character lowercase MD5 hex digest of the URI's bytes.
func ID(uri string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(uri)))
}

// URI converts an absolute filesystem path into its canonical file:// URI
// form. The path must already be absolute; percent-encoding follows RFC 3986
// so identical paths always produce byte-identical URIs.
func URI(absPath string) (string, error) {
	if !filepath.IsAbs(absPath) {
		return "", fmt.Errorf("path %q is not absolute", absPath)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	return u.String(), nil
}

// EntryPath returns the location of a successful thumbnail for the given
// tier directory and identifier.
func EntryPath(root, tierDir, id string) string {
	return filepath.Join(root, tierDir, id+".png")
}

// FailPath returns the location of the failure marker for the given
// identifier. Markers are namespaced by the writing application so distinct
// generators do not clobber each other's results.
func FailPath(root, appID, id string) string {
	return filepath.Join(root, "fail", appID, id+".png")
}

// DefaultRoot resolves the standard thumbnail cache root:
// $XDG_CACHE_HOME/thumbnails, falling back to ~/.cache/thumbnails.
func DefaultRoot() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving user cache dir: %w", err)
	}
	return filepath.Join(base, "thumbnails"), nil
}
