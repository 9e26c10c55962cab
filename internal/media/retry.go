package media

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/google/uuid"
	"github.com/grvbrk/vidtube_server/internal/metrics"
	"github.com/sethvargo/go-retry"
)

// RetryingStore bounds every call to the wrapped store with a per-attempt
// timeout and retries transient failures with exponential backoff. Uploads
// keep one asset identifier across attempts.
type RetryingStore struct {
	next       MediaStore
	maxRetries uint64
	baseDelay  time.Duration
	timeout    time.Duration
	logger     *log.Logger
	metrics    *metrics.Metrics
}

func NewRetryingStore(next MediaStore, maxRetries uint64, timeout time.Duration, logger *log.Logger, m *metrics.Metrics) *RetryingStore {
	return &RetryingStore{
		next:       next,
		maxRetries: maxRetries,
		baseDelay:  200 * time.Millisecond,
		timeout:    timeout,
		logger:     logger,
		metrics:    m,
	}
}

func (r *RetryingStore) backoff() retry.Backoff {
	b := retry.NewExponential(r.baseDelay)
	b = retry.WithCappedDuration(5*time.Second, b)
	return retry.WithMaxRetries(r.maxRetries, b)
}

func (r *RetryingStore) Upload(ctx context.Context, localPath string, resourceType ResourceType) (*Asset, error) {
	if _, ok := assetIDFrom(ctx); !ok {
		ctx = WithAssetID(ctx, uuid.NewString())
	}

	var asset *Asset
	err := r.do(ctx, "upload", resourceType, func(ctx context.Context) error {
		a, err := r.next.Upload(ctx, localPath, resourceType)
		if err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func (r *RetryingStore) Destroy(ctx context.Context, assetID string, resourceType ResourceType) error {
	return r.do(ctx, "destroy", resourceType, func(ctx context.Context) error {
		return r.next.Destroy(ctx, assetID, resourceType)
	})
}

func (r *RetryingStore) do(ctx context.Context, op string, resourceType ResourceType, fn func(context.Context) error) error {
	attempt := 0
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempt++

		attemptCtx := ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !isTransient(err) {
			return err
		}

		r.logger.Printf("Media %s of %s failed (attempt %d): %v", op, resourceType, attempt, err)
		return retry.RetryableError(err)
	})

	if r.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		r.metrics.MediaOperations.WithLabelValues(op, string(resourceType), result).Inc()
	}
	return err
}

// isTransient reports whether a failed media call is worth another attempt.
// Local file problems and client-side HTTP errors are permanent.
func isTransient(err error) bool {
	if errors.Is(err, ErrLocalFile) {
		return false
	}

	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		code := re.HTTPStatusCode()
		return code >= http.StatusInternalServerError ||
			code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout
	}
	return true
}
