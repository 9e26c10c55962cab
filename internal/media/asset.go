package media

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type ResourceType string

const (
	ResourceImage ResourceType = "image"
	ResourceVideo ResourceType = "video"
)

const uploadMarker = "/upload/"

var (
	ErrNoUploadMarker = errors.New("media url has no upload segment")
	ErrEmptyAssetID   = errors.New("media url has no asset identifier")

	versionSegment = regexp.MustCompile(`^v\d+$`)
)

// Asset is a file stored on the media host.
type Asset struct {
	URL          string       `json:"url"`
	AssetID      string       `json:"assetId"`
	ResourceType ResourceType `json:"resourceType"`
	Duration     float64      `json:"duration,omitempty"`
}

// AssetID derives the deletion key from a hosted media URL of the form
// .../upload/{optional-version}/{identifier}.{ext}.
func AssetID(mediaURL string) (string, error) {
	idx := strings.LastIndex(mediaURL, uploadMarker)
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrNoUploadMarker, mediaURL)
	}

	rest := mediaURL[idx+len(uploadMarker):]
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	// only a dot in the last path segment starts an extension
	if dot := strings.LastIndex(rest, "."); dot > strings.LastIndex(rest, "/") {
		rest = rest[:dot]
	}

	if first, tail, ok := strings.Cut(rest, "/"); ok && versionSegment.MatchString(first) {
		rest = tail
	}

	if rest == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyAssetID, mediaURL)
	}
	return rest, nil
}
