package media

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Target names a remote asset scheduled for removal.
type Target struct {
	AssetID      string
	ResourceType ResourceType
}

// TargetFromURL derives a Target from a stored media URL.
func TargetFromURL(mediaURL string, resourceType ResourceType) (Target, error) {
	id, err := AssetID(mediaURL)
	if err != nil {
		return Target{}, err
	}
	return Target{AssetID: id, ResourceType: resourceType}, nil
}

// CleanupResult is the outcome of a best-effort removal of remote assets.
type CleanupResult struct {
	Deleted []Target
	Failed  []Target
	Err     error
}

func (r *CleanupResult) OK() bool {
	return r.Err == nil
}

func (r *CleanupResult) Fail(target Target, err error) {
	r.Failed = append(r.Failed, target)
	r.Err = multierr.Append(r.Err, fmt.Errorf("destroy %s %s: %w", target.ResourceType, target.AssetID, err))
}

func (r *CleanupResult) Merge(other CleanupResult) {
	r.Deleted = append(r.Deleted, other.Deleted...)
	r.Failed = append(r.Failed, other.Failed...)
	r.Err = multierr.Append(r.Err, other.Err)
}

// Cleanup destroys each target in order. A failure never stops the
// remaining targets from being attempted.
func Cleanup(ctx context.Context, store MediaStore, targets ...Target) CleanupResult {
	var result CleanupResult
	for _, target := range targets {
		if err := store.Destroy(ctx, target.AssetID, target.ResourceType); err != nil {
			result.Fail(target, err)
			continue
		}
		result.Deleted = append(result.Deleted, target)
	}
	return result
}
