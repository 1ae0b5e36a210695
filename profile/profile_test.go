package profile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/flickpick/identity"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(item map[string]types.AttributeValue) string {
	if v, ok := item["user_id"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

// UpdateItem understands "SET image_url = :u, updated_at = :t" only
func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyOf(in.Key)
	item, ok := f.items[k]
	if !ok {
		item = map[string]types.AttributeValue{"user_id": in.Key["user_id"]}
		f.items[k] = item
	}
	item["image_url"] = in.ExpressionAttributeValues[":u"]
	item["updated_at"] = in.ExpressionAttributeValues[":t"]
	return &dynamodb.UpdateItemOutput{}, nil
}

type fakeS3 struct {
	last *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.last = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func newTestRepository(api DynamoAPI) *DynamoRepository {
	r := NewDynamoRepository(api, "profiles")
	r.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func newTestAvatarStore(t *testing.T, api S3API) *AvatarStore {
	t.Helper()
	a, err := NewAvatarStore(api, "flickpick-avatars", "https://cdn.example.com/")
	require.NoError(t, err)
	a.newID = func() string { return "fixed-id" }
	return a
}

func TestDynamoRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(newFakeDynamo())

	_, err := repo.Get(ctx, "u1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Put(ctx, Profile{UserID: "u1", Name: "Ada", Email: "ada@example.com"}))

	p, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), p.UpdatedAt)

	require.NoError(t, repo.SetImageURL(ctx, "u1", "https://cdn.example.com/a.png"))
	p, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", p.ImageURL)
	assert.Equal(t, "Ada", p.Name)
}

func TestDynamoRepositoryErrors(t *testing.T) {
	api := newFakeDynamo()
	api.err = errors.New("ResourceNotFoundException")
	repo := newTestRepository(api)

	_, err := repo.Get(context.Background(), "u1")
	require.ErrorIs(t, err, ErrBackend)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "dynamodb: get profile")

	require.ErrorIs(t, repo.Put(context.Background(), Profile{UserID: "u1", Name: "Ada"}), ErrBackend)
	require.ErrorIs(t, repo.SetImageURL(context.Background(), "u1", "https://cdn.example.com/a.png"), ErrBackend)

	svc := NewService(repo, nil, zerolog.Nop())
	_, err = svc.Update(context.Background(), "u1", Changes{Name: "Ada"})
	require.ErrorIs(t, err, ErrBackend)

	empty := NewDynamoRepository(newFakeDynamo(), "")
	require.Error(t, empty.Put(context.Background(), Profile{UserID: "u1"}))
}

func TestAvatarUpload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		contentType string
		data        []byte
		wantURL     string
		wantType    string
		wantErr     error
	}{
		{
			name:        "declared png",
			contentType: "image/png",
			data:        pngHeader,
			wantURL:     "https://cdn.example.com/profile_pictures/u1/fixed-id.png",
			wantType:    "image/png",
		},
		{
			name:        "declared jpeg with params",
			contentType: "image/JPEG; charset=binary",
			data:        []byte{0xff, 0xd8, 0xff},
			wantURL:     "https://cdn.example.com/profile_pictures/u1/fixed-id.jpg",
			wantType:    "image/jpeg",
		},
		{
			name:     "sniffed png",
			data:     pngHeader,
			wantURL:  "https://cdn.example.com/profile_pictures/u1/fixed-id.png",
			wantType: "image/png",
		},
		{
			name:        "gif rejected",
			contentType: "image/gif",
			data:        []byte("GIF89a"),
			wantErr:     ErrUnsupportedImage,
		},
		{
			name:    "sniffed text rejected",
			data:    []byte("hello"),
			wantErr: ErrUnsupportedImage,
		},
		{
			name:        "too large",
			contentType: "image/png",
			data:        bytes.Repeat([]byte{0}, MaxAvatarSize+1),
			wantErr:     ErrImageTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeS3{}
			store := newTestAvatarStore(t, api)

			url, err := store.Upload(ctx, "u1", tt.contentType, bytes.NewReader(tt.data))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, api.last, "nothing is uploaded")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, url)
			assert.Equal(t, "flickpick-avatars", aws.ToString(api.last.Bucket))
			assert.Equal(t, tt.wantType, aws.ToString(api.last.ContentType))
			assert.Equal(t, int64(len(tt.data)), aws.ToInt64(api.last.ContentLength))
			assert.Equal(t, tt.data, api.body)
		})
	}
}

func TestNewAvatarStore(t *testing.T) {
	_, err := NewAvatarStore(&fakeS3{}, "", "")
	require.Error(t, err)

	a, err := NewAvatarStore(&fakeS3{}, "bucket", "")
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.amazonaws.com", a.publicBaseURL)
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestRepository(newFakeDynamo()), nil, zerolog.Nop())

	p, err := svc.Update(ctx, "u1", Changes{Name: "  Ada  "})
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, "u1", p.UserID)

	p, err = svc.Update(ctx, "u1", Changes{Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name, "empty fields are unchanged")
	assert.Equal(t, "ada@example.com", p.Email)

	_, err = svc.Update(ctx, "u1", Changes{Email: "not-an-email"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	_, err = svc.Update(ctx, "u1", Changes{Name: strings.Repeat("x", 101)})
	require.Error(t, err)

	_, err = svc.Update(ctx, "", Changes{Name: "Ada"})
	require.ErrorIs(t, err, identity.ErrNoIdentity)
}

func TestServiceUploadAvatar(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(newFakeDynamo())
	svc := NewService(repo, newTestAvatarStore(t, &fakeS3{}), zerolog.Nop())

	url, err := svc.UploadAvatar(ctx, "u1", "image/png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	p, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, url, p.ImageURL)

	t.Run("upload failure leaves profile untouched", func(t *testing.T) {
		failing := NewService(repo, newTestAvatarStore(t, &fakeS3{err: errors.New("AccessDenied")}), zerolog.Nop())
		_, err := failing.UploadAvatar(ctx, "u1", "image/png", bytes.NewReader(pngHeader))
		require.Error(t, err)

		p, err := svc.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, url, p.ImageURL)
	})

	t.Run("no storage configured", func(t *testing.T) {
		bare := NewService(repo, nil, zerolog.Nop())
		_, err := bare.UploadAvatar(ctx, "u1", "image/png", bytes.NewReader(pngHeader))
		require.ErrorIs(t, err, ErrStorageDisabled)
	})

	t.Run("no identity", func(t *testing.T) {
		_, err := svc.UploadAvatar(ctx, "", "image/png", bytes.NewReader(pngHeader))
		require.ErrorIs(t, err, identity.ErrNoIdentity)
		_, err = svc.Get(ctx, "")
		require.ErrorIs(t, err, identity.ErrNoIdentity)
	})
}
