package poll

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
	driveFilePattern = regexp.MustCompile(`^/file/d/([A-Za-z0-9_-]+)`)

	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
		".webp": true, ".bmp": true, ".svg": true, ".avif": true,
	}
	videoExtensions = map[string]bool{
		".mp4": true, ".webm": true, ".mov": true, ".m4v": true,
		".ogg": true, ".ogv": true, ".avi": true, ".mkv": true,
	}
)

// ClassifyLink turns a raw link into a presentable media item.
//
// YouTube watch, short-link, shorts and embed URLs become embed URLs; Google
// Drive file and open URLs become preview URLs. Both are treated as video.
// Anything else is typed by file extension and defaults to image.
func ClassifyLink(raw string) (MediaItem, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return MediaItem{}, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	switch host {
	case "youtube.com", "youtube-nocookie.com":
		if id := youtubeID(u); id != "" {
			return MediaItem{URL: "https://www.youtube.com/embed/" + id, Type: MediaVideo}, nil
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); youtubeIDPattern.MatchString(id) {
			return MediaItem{URL: "https://www.youtube.com/embed/" + id, Type: MediaVideo}, nil
		}
	case "drive.google.com":
		if id := driveID(u); id != "" {
			return MediaItem{URL: "https://drive.google.com/file/d/" + id + "/preview", Type: MediaVideo}, nil
		}
	}

	ext := strings.ToLower(path.Ext(u.Path))
	switch {
	case imageExtensions[ext]:
		return MediaItem{URL: raw, Type: MediaImage}, nil
	case videoExtensions[ext]:
		return MediaItem{URL: raw, Type: MediaVideo}, nil
	default:
		return MediaItem{URL: raw, Type: MediaImage}, nil
	}
}

// ClassifyLinks classifies every non-blank link in order.
func ClassifyLinks(links []string) ([]MediaItem, error) {
	items := make([]MediaItem, 0, len(links))
	for _, link := range links {
		if strings.TrimSpace(link) == "" {
			continue
		}
		item, err := ClassifyLink(link)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// FromIngest builds a poll from an automation payload.
func FromIngest(id string, req IngestRequest) (*Poll, error) {
	items, err := ClassifyLinks(req.Links)
	if err != nil {
		return nil, err
	}
	return New(id, Input{
		Creator:    req.Creator,
		Company:    req.Company,
		MediaItems: items,
		Timer:      req.Timer,
		ExposeThem: req.ExposeThem,
	})
}

func youtubeID(u *url.URL) string {
	if u.Path == "/watch" {
		if id := u.Query().Get("v"); youtubeIDPattern.MatchString(id) {
			return id
		}
		return ""
	}
	for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
		if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
			id, _, _ := strings.Cut(rest, "/")
			if youtubeIDPattern.MatchString(id) {
				return id
			}
		}
	}
	return ""
}

func driveID(u *url.URL) string {
	if m := driveFilePattern.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	if u.Path == "/open" || u.Path == "/uc" {
		return u.Query().Get("id")
	}
	return ""
}
