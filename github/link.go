package github

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
)

var linkPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="([^"]+)"`)

// ParseLinks returns the rel => url mapping of an RFC 5988 Link header.
func ParseLinks(header string) map[string]string {
	links := make(map[string]string)
	for _, m := range linkPattern.FindAllStringSubmatch(header, -1) {
		links[m[2]] = m[1]
	}
	return links
}

// NextLink returns the rel="next" url of a response, or "" when there is none.
func NextLink(h http.Header) string {
	return ParseLinks(h.Get("Link"))["next"]
}

// SinceOf returns the since parameter of a repository listing URL, or 0.
func SinceOf(rawURL string) int64 {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	since, err := strconv.ParseInt(u.Query().Get("since"), 10, 64)
	if err != nil {
		return 0
	}
	return since
}

// WithSince returns rawURL with its since parameter set to since.
func WithSince(rawURL string, since int64) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("since", strconv.FormatInt(since, 10))
	u.RawQuery = q.Encode()
	return u.String()
}
