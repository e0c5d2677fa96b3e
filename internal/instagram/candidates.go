package instagram

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// PlaceholderUserID is the sample id shipped in example env files. It is
// never a real destination and is resolved like an unset id.
const PlaceholderUserID = "17841400008460056"

var userIDPattern = regexp.MustCompile(`^[0-9]{6,20}$`)

// IsUsableUserID reports whether id looks like an Instagram business
// account id and is not the placeholder.
func IsUsableUserID(id string) bool {
	return userIDPattern.MatchString(id) && id != PlaceholderUserID
}

// urlRejectionSignatures are substrings of gateway errors that mean the
// platform refused the image URL itself rather than the post.
var urlRejectionSignatures = []string{
	"did not match the expected pattern",
	"invalid url",
	"invalid_url",
}

// IsURLRejection reports whether a container-creation error message means
// the image URL was rejected. The signatures are copied from provider error
// text and will need updating if that wording changes.
func IsURLRejection(msg string) bool {
	lower := strings.ToLower(msg)
	for _, sig := range urlRejectionSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

// CandidateURLs returns imageURL followed by the same path and query on each
// other host in family, provided imageURL's own host is in family. Only
// absolute http and https URLs are accepted.
func CandidateURLs(imageURL string, family []string) ([]string, error) {
	u, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil {
		return nil, fmt.Errorf("invalid image URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid image URL %q: must be an absolute http or https URL", imageURL)
	}

	candidates := []string{u.String()}
	if !containsHost(family, u.Hostname()) {
		return candidates, nil
	}
	for _, host := range family {
		if strings.EqualFold(host, u.Hostname()) {
			continue
		}
		sibling := *u
		sibling.Host = host
		candidates = append(candidates, sibling.String())
	}
	return candidates, nil
}

func containsHost(family []string, host string) bool {
	for _, h := range family {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

// truncateRunes returns the first n characters of s.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
