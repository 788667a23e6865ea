package cloudinary

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const uploadMarker = "/upload/"

var (
	versionSegmentRe = regexp.MustCompile(`(?i)^v\d+$`)
	nonAlnumRe       = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// ExtractPublicIDFromURL recovers the public id from a delivery URL, or "" when
// the URL is not an upload URL.
func ExtractPublicIDFromURL(imageURL string) string {
	idx := strings.Index(imageURL, uploadMarker)
	if idx == -1 {
		return ""
	}
	rest := imageURL[idx+len(uploadMarker):]
	if cut := strings.IndexAny(rest, "?#"); cut != -1 {
		rest = rest[:cut]
	}

	segments := make([]string, 0)
	for _, segment := range strings.Split(rest, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	// transformation segments carry commas
	for len(segments) > 0 && strings.Contains(segments[0], ",") {
		segments = segments[1:]
	}
	if len(segments) > 0 && versionSegmentRe.MatchString(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return ""
	}

	filename := segments[len(segments)-1]
	if dot := strings.LastIndex(filename, "."); dot > 0 {
		filename = filename[:dot]
	}
	if len(segments) == 1 {
		return filename
	}
	return strings.Join(segments[:len(segments)-1], "/") + "/" + filename
}

// Slug folds accents and collapses anything non-alphanumeric into dashes.
func Slug(value string) string {
	slug := nonAlnumRe.ReplaceAllString(StripDiacritics(value), "-")
	slug = strings.ToLower(strings.Trim(slug, "-"))
	if slug == "" {
		return defaultSlug
	}
	return slug
}

// StripDiacritics decomposes the string and drops combining marks.
func StripDiacritics(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}
