// Package media translates video-provider URLs into embeddable player
// URLs by simple pattern substitution.
package media

import (
	"regexp"
	"strings"
)

var (
	youtubeIDRe = regexp.MustCompile(`(?:v=|youtu\.be/)([\w-]{6,})`)
	vimeoIDRe   = regexp.MustCompile(`vimeo\.com/(\d+)`)
	directFile  = regexp.MustCompile(`\.(mp4|webm|ogg)$`)
)

// EmbedURL returns the embeddable player URL for a media link, or
// ok=false when the link is not a recognized provider or direct video
// file. Unrecognized links still render as plain anchors upstream.
func EmbedURL(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	lower := strings.ToLower(raw)

	if strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be") {
		m := youtubeIDRe.FindStringSubmatch(raw)
		if m == nil {
			return "", false
		}
		return "https://www.youtube.com/embed/" + m[1], true
	}
	if strings.Contains(lower, "vimeo.com") {
		m := vimeoIDRe.FindStringSubmatch(raw)
		if m == nil {
			return "", false
		}
		return "https://player.vimeo.com/video/" + m[1], true
	}
	if directFile.MatchString(lower) {
		return raw, true
	}
	return "", false
}
