package crawler

import (
	"net/url"
	"path"
	"strings"
)

// static assets and binary payloads we never want in the frontier
var skippedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".webp": true, ".ico": true, ".css": true, ".js": true, ".mjs": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".rar": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".webm": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".exe": true, ".dmg": true, ".apk": true,
}

// auth and commerce flows that are never worth indexing
var skippedPathParts = []string{
	"/login", "/logout", "/signin", "/sign-in", "/signup", "/sign-up",
	"/register", "/auth/", "/oauth", "/password", "/account/",
	"/cart", "/checkout", "/wp-login", "/wp-admin",
}

// canonicalURL normalizes a URL for the visited set: fragment stripped,
// trailing slash dropped, host lowercased. Returns ok=false for anything
// that should never be crawled (non-http schemes, static assets, auth flows).
func canonicalURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}

	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	if skippedExtensions[strings.ToLower(path.Ext(u.Path))] {
		return "", false
	}
	lowerPath := strings.ToLower(u.Path) + "/"
	for _, part := range skippedPathParts {
		if strings.Contains(lowerPath, part) {
			return "", false
		}
	}

	return u.String(), true
}

// sameOrigin reports whether candidate shares base's hostname.
func sameOrigin(base *url.URL, candidate *url.URL) bool {
	return strings.EqualFold(base.Hostname(), candidate.Hostname())
}
