package ytvideodata

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var ErrInvalidVideoURL = errors.New("invalid youtube video url")

var videoIdRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

func IsVideoId(s string) bool {
	return videoIdRe.MatchString(s)
}

// ParseVideoId extracts the video id from watch, youtu.be, embed, shorts and live urls.
func ParseVideoId(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if IsVideoId(rawURL) {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", ErrInvalidVideoURL
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	host = strings.TrimPrefix(host, "music.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]
	case "youtube.com", "youtube-nocookie.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
			break
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) >= 2 {
			switch parts[0] {
			case "embed", "shorts", "live", "v":
				id = parts[1]
			}
		}
	}

	if !IsVideoId(id) {
		return "", ErrInvalidVideoURL
	}

	return id, nil
}
