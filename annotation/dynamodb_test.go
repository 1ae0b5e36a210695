package annotation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items keyed by user_id and sk and honours the two
// condition expressions the backend uses
type fakeDynamo struct {
	mu        sync.Mutex
	items     map[string]map[string]types.AttributeValue
	err       error
	lastQuery *dynamodb.QueryInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func attrS(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func itemKey(item map[string]types.AttributeValue) string {
	return attrS(item, "user_id") + "|" + attrS(item, "sk")
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := itemKey(in.Item)
	if aws.ToString(in.ConditionExpression) == "attribute_not_exists(sk)" {
		if _, ok := f.items[k]; ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := itemKey(in.Key)
	if aws.ToString(in.ConditionExpression) == "attribute_exists(sk)" {
		if _, ok := f.items[k]; !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
		}
	}
	delete(f.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = in

	user := attrS(in.ExpressionAttributeValues, ":u")
	prefix := attrS(in.ExpressionAttributeValues, ":prefix")

	var out []map[string]types.AttributeValue
	for _, item := range f.items {
		if attrS(item, "user_id") == user && strings.HasPrefix(attrS(item, "sk"), prefix) {
			out = append(out, item)
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func newTestDynamoBackend(api DynamoAPI) *DynamoBackend {
	return NewDynamoBackend(api, "annotations", zerolog.Nop())
}

func TestDynamoBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newFakeDynamo()
	b := newTestDynamoBackend(api)

	fav := Record{UserID: "u1", MovieID: 550, Kind: Favorite}

	ok, err := b.Exists(ctx, fav)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Put(ctx, fav))
	require.NoError(t, b.Put(ctx, Record{UserID: "u1", MovieID: 13, Kind: Favorite}))
	require.NoError(t, b.Put(ctx, Record{UserID: "u1", MovieID: 99, Kind: Watched}))
	require.NoError(t, b.Put(ctx, Record{UserID: "u2", MovieID: 550, Kind: Favorite}))

	ok, err = b.Exists(ctx, fav)
	require.NoError(t, err)
	assert.True(t, ok)

	stored := api.items["u1|favorites#550"]
	require.NotNil(t, stored)
	assert.Equal(t, "favorites", attrS(stored, "kind"))
	assert.Equal(t, &types.AttributeValueMemberN{Value: "550"}, stored["movie_id"])

	ids, err := b.ListIDs(ctx, "u1", Favorite)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{550, 13}, ids)
	assert.Equal(t, "user_id = :u AND begins_with(sk, :prefix)", aws.ToString(api.lastQuery.KeyConditionExpression))

	require.NoError(t, b.Delete(ctx, fav))

	ids, err = b.ListIDs(ctx, "u1", Favorite)
	require.NoError(t, err)
	assert.Equal(t, []int64{13}, ids)
}

func TestDynamoBackendItemShape(t *testing.T) {
	api := newFakeDynamo()
	b := newTestDynamoBackend(api)

	require.NoError(t, b.Put(context.Background(), Record{UserID: "u1", MovieID: 550, Kind: Watched}))

	stored := api.items["u1|watched#550"]
	require.NotNil(t, stored)

	names := make([]string, 0, len(stored))
	for name := range stored {
		names = append(names, name)
	}
	assert.ElementsMatch(t, []string{"user_id", "sk", "kind", "movie_id"}, names, "a mark is never timestamped or counted")
	assert.Equal(t, "watched", attrS(stored, "kind"))
}

func TestDynamoBackendConditionalWrites(t *testing.T) {
	ctx := context.Background()
	b := newTestDynamoBackend(newFakeDynamo())
	rec := Record{UserID: "u1", MovieID: 7, Kind: Watched}

	// Another device got there first: both are no-ops
	require.NoError(t, b.Put(ctx, rec))
	require.NoError(t, b.Put(ctx, rec))
	require.NoError(t, b.Delete(ctx, rec))
	require.NoError(t, b.Delete(ctx, rec))
}

func TestDynamoBackendErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("service error", func(t *testing.T) {
		api := newFakeDynamo()
		api.err = errors.New("AccessDeniedException")
		b := newTestDynamoBackend(api)

		_, err := b.Exists(ctx, Record{UserID: "u1", MovieID: 1, Kind: Favorite})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dynamodb: get annotation")

		_, err = b.ListIDs(ctx, "u1", Favorite)
		require.Error(t, err)

		store := NewStore(b, &fakeCatalog{}, zerolog.Nop())
		_, err = store.Toggle(ctx, "u1", 1, Favorite)
		require.ErrorIs(t, err, ErrBackend)
	})

	t.Run("missing table name", func(t *testing.T) {
		b := NewDynamoBackend(newFakeDynamo(), " ", zerolog.Nop())
		err := b.Put(ctx, Record{UserID: "u1", MovieID: 1, Kind: Favorite})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "table name is required")
	})
}

func TestDynamoBackendWithStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDynamoBackend(newFakeDynamo()), &fakeCatalog{}, zerolog.Nop())

	on, err := store.Toggle(ctx, "u1", 42, Watched)
	require.NoError(t, err)
	assert.True(t, on)

	ids, err := store.ListMarkedIDs(ctx, "u1", Watched)
	require.NoError(t, err)
	assert.Contains(t, ids, int64(42))

	off, err := store.Toggle(ctx, "u1", 42, Watched)
	require.NoError(t, err)
	assert.False(t, off)

	ids, err = store.ListMarkedIDs(ctx, "u1", Watched)
	require.NoError(t, err)
	assert.NotContains(t, ids, int64(42))
}
