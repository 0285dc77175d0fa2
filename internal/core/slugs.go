package core

// slugs.go extracts site paths from a sitemap document.
//
// Every <loc> whose parent element is <url> is collected, trimmed, and
// normalized into a slug. Absolute URLs pointing at a different host than the
// first absolute URL in the document are treated as strays and dropped.

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/html/charset"
)

// ExtractSlugs parses a sitemap and returns its unique slugs in first-seen order.
// The reference host is inferred from the document.
func ExtractSlugs(markup string) ([]string, error) {
	locs, err := SitemapLocations(markup)
	if err != nil {
		return nil, err
	}
	host, _ := ReferenceHost(locs)
	return slugsFor(locs, host), nil
}

// ExtractSlugsForHost is ExtractSlugs with an explicit allowed host instead of
// the inferred one. An empty host falls back to inference.
func ExtractSlugsForHost(markup, host string) ([]string, error) {
	if host == "" {
		return ExtractSlugs(markup)
	}
	locs, err := SitemapLocations(markup)
	if err != nil {
		return nil, err
	}
	return slugsFor(locs, host), nil
}

func slugsFor(locs []string, host string) []string {
	slugs := lo.FilterMap(locs, func(loc string, _ int) (string, bool) {
		return NormalizeSlug(loc, host)
	})
	return lo.Uniq(slugs)
}

// SitemapLocations returns the trimmed text of every url > loc element.
// Empty elements yield empty strings.
func SitemapLocations(markup string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(markup))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		locs     []string
		stack    []string
		text     strings.Builder
		inLoc    int // depth of the loc element being collected, 0 when none
		sawRoot  bool
		rootDone bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMarkup, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootDone {
				return nil, fmt.Errorf("%w: content after root element <%s>", ErrMalformedMarkup, t.Name.Local)
			}
			sawRoot = true
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, t.Name.Local)
			if inLoc == 0 && t.Name.Local == "loc" && parent == "url" {
				inLoc = len(stack)
				text.Reset()
			}
		case xml.EndElement:
			if inLoc == len(stack) {
				locs = append(locs, strings.TrimSpace(text.String()))
				inLoc = 0
			}
			stack = stack[:len(stack)-1]
			rootDone = len(stack) == 0
		case xml.CharData:
			if len(stack) == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("%w: text outside root element", ErrMalformedMarkup)
			}
			if inLoc > 0 {
				text.Write(t)
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedMarkup)
	}
	return locs, nil
}

// ReferenceHost returns the host of the first location that parses as an
// absolute URL. The boolean is false when no location qualifies.
func ReferenceHost(locs []string) (string, bool) {
	for _, loc := range locs {
		if u, ok := parseAbsolute(loc); ok {
			return canonicalHost(u), true
		}
	}
	return "", false
}

// NormalizeSlug converts a sitemap location into a slug.
//
// Absolute URLs must match referenceHost (when non-empty) and map to their
// path, with an empty path becoming "/". Rooted relative paths are returned
// unchanged. Everything else, including the empty string, is rejected.
func NormalizeSlug(loc, referenceHost string) (string, bool) {
	if u, ok := parseAbsolute(loc); ok {
		if referenceHost != "" && !strings.EqualFold(canonicalHost(u), referenceHost) {
			return "", false
		}
		path := u.EscapedPath()
		if path == "" {
			return "/", true
		}
		return removeDotSegments(path), true
	}

	if strings.HasPrefix(loc, "/") {
		return loc, true
	}
	return "", false
}

// parseAbsolute parses s and reports whether it is an absolute URL.
func parseAbsolute(s string) (*url.URL, bool) {
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return nil, false
	}
	return u, true
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"ws":    "80",
	"wss":   "443",
	"ftp":   "21",
}

// canonicalHost returns the lower-cased host of u without the scheme's
// default port, so https://a.com:443 and https://a.com compare equal.
func canonicalHost(u *url.URL) string {
	host := strings.ToLower(u.Host)
	if port := u.Port(); port != "" && defaultPorts[strings.ToLower(u.Scheme)] == port {
		host = strings.TrimSuffix(host, ":"+port)
	}
	return strings.TrimSuffix(host, ":")
}

// removeDotSegments resolves "." and ".." segments of a rooted path, including
// their percent-encoded forms. A path ending in a dot segment keeps its
// trailing slash, and ".." never climbs above the root.
func removeDotSegments(path string) string {
	if !strings.Contains(path, ".") {
		return path
	}
	segs := strings.Split(path, "/")[1:]
	out := make([]string, 0, len(segs))
	for i, seg := range segs {
		last := i == len(segs)-1
		switch strings.ToLower(seg) {
		case ".", "%2e":
			if last {
				out = append(out, "")
			}
		case "..", ".%2e", "%2e.", "%2e%2e":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			if last {
				out = append(out, "")
			}
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/")
}

// PreviewSlugs returns at most limit slugs and the number left out.
func PreviewSlugs(slugs []string, limit int) ([]string, int) {
	if limit < 0 || len(slugs) <= limit {
		return slugs, 0
	}
	return slugs[:limit], len(slugs) - limit
}

// MatchSlugs returns the slugs starting with prefix (case-insensitive), in
// slug order, capped at limit when limit > 0.
func MatchSlugs(slugs []string, prefix string, limit int) []string {
	needle := strings.ToLower(EnsureLeadingSlash(prefix))
	matches := lo.Filter(slugs, func(slug string, _ int) bool {
		return strings.HasPrefix(strings.ToLower(slug), needle)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
