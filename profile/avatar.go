package profile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxAvatarSize is the largest accepted avatar upload
const MaxAvatarSize = 5 << 20

// avatarPrefix is the object key prefix for uploaded avatars
const avatarPrefix = "profile_pictures"

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// S3API is the subset of the S3 client used by AvatarStore
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// AvatarStore uploads avatar images to a bucket
type AvatarStore struct {
	client        S3API
	bucket        string
	publicBaseURL string
	newID         func() string
}

// NewAvatarStore creates a new avatar store. publicBaseURL is the prefix objects
// are served from; it defaults to the bucket's virtual-hosted S3 URL.
func NewAvatarStore(client S3API, bucket, publicBaseURL string) (*AvatarStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}

	return &AvatarStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		newID:         uuid.NewString,
	}, nil
}

// Upload stores the image and returns its public URL. An empty content type is
// sniffed from the data.
func (a *AvatarStore) Upload(ctx context.Context, userID, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxAvatarSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxAvatarSize {
		return "", fmt.Errorf("%w: over %d bytes", ErrImageTooLarge, MaxAvatarSize)
	}

	contentType, ext, err := imageType(contentType, data)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s/%s%s", avatarPrefix, userID, a.newID(), ext)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put avatar: %w", err)
	}

	return a.publicBaseURL + "/" + key, nil
}

// imageType resolves the declared or sniffed content type to an allowed image type
func imageType(declared string, data []byte) (string, string, error) {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if contentType == "image/jpg" {
		contentType = "image/jpeg"
	}

	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	return contentType, ext, nil
}
