package media

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3API is the subset of the S3 client used by S3MediaStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3MediaStore keeps assets in an S3 bucket fronted by a CDN at baseURL.
// Objects are keyed {resourceType}/{assetID}; public URLs take the form
// {baseURL}/{resourceType}/upload/v{unix}/{assetID}{ext}.
type S3MediaStore struct {
	client  S3API
	bucket  string
	baseURL string
	prober  Prober
	now     func() time.Time
	newID   func() string
}

func NewS3MediaStore(client S3API, bucket, baseURL string, prober Prober) *S3MediaStore {
	return &S3MediaStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		prober:  prober,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// NewS3Client loads the default AWS configuration. A non-empty endpoint
// switches to path-style addressing for S3-compatible hosts.
func NewS3Client(ctx context.Context, endpoint string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *S3MediaStore) Upload(ctx context.Context, localPath string, resourceType ResourceType) (*Asset, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocalFile, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocalFile, err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrLocalFile, localPath)
	}

	var duration float64
	if resourceType == ResourceVideo && s.prober != nil {
		duration, err = s.prober.Duration(ctx, localPath)
		if err != nil {
			return nil, fmt.Errorf("%w: probe duration: %v", ErrLocalFile, err)
		}
	}

	assetID, ok := assetIDFrom(ctx)
	if !ok {
		assetID = s.newID()
	}
	ext := strings.ToLower(filepath.Ext(localPath))

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey(assetID, resourceType)),
		Body:          file,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &Asset{
		URL:          fmt.Sprintf("%s/%s/upload/v%d/%s%s", s.baseURL, resourceType, s.now().Unix(), assetID, ext),
		AssetID:      assetID,
		ResourceType: resourceType,
		Duration:     duration,
	}, nil
}

func (s *S3MediaStore) Destroy(ctx context.Context, assetID string, resourceType ResourceType) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(assetID, resourceType)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func objectKey(assetID string, resourceType ResourceType) string {
	if resourceType == "" {
		resourceType = ResourceImage
	}
	return string(resourceType) + "/" + assetID
}
