package media

import (
	"context"
	"errors"
)

// ErrLocalFile marks failures reading the local upload. They are never retried.
var ErrLocalFile = errors.New("local file unavailable")

type MediaStore interface {
	Upload(ctx context.Context, localPath string, resourceType ResourceType) (*Asset, error)
	Destroy(ctx context.Context, assetID string, resourceType ResourceType) error
}

type assetIDKey struct{}

// WithAssetID pins the identifier an Upload on ctx stores the asset under,
// so repeated attempts overwrite one object.
func WithAssetID(ctx context.Context, assetID string) context.Context {
	return context.WithValue(ctx, assetIDKey{}, assetID)
}

func assetIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(assetIDKey{}).(string)
	return id, ok && id != ""
}
