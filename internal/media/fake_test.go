package media

import (
	"context"
	"sync"
)

type destroyCall struct {
	AssetID      string
	ResourceType ResourceType
}

// fakeStore fails the first failUploads/failDestroys calls with err.
type fakeStore struct {
	mu           sync.Mutex
	err          error
	failUploads  int
	failDestroys map[string]int
	uploads      int
	assetIDs     []string
	destroys     []destroyCall
}

func (f *fakeStore) Upload(ctx context.Context, localPath string, resourceType ResourceType) (*Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.uploads++
	id, _ := assetIDFrom(ctx)
	f.assetIDs = append(f.assetIDs, id)
	if f.uploads <= f.failUploads {
		return nil, f.err
	}
	return &Asset{URL: "https://host/upload/v1/id.bin", AssetID: "id", ResourceType: resourceType}, nil
}

func (f *fakeStore) Destroy(ctx context.Context, assetID string, resourceType ResourceType) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.destroys = append(f.destroys, destroyCall{assetID, resourceType})
	if n := f.failDestroys[assetID]; n > 0 {
		f.failDestroys[assetID] = n - 1
		return f.err
	}
	return nil
}
