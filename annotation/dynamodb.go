package annotation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoBackend
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ Backend = (*DynamoBackend)(nil)

// DynamoBackend stores marks in a single DynamoDB table.
// Partition key user_id (S), sort key sk = "<kind>#<movieID>" (S).
type DynamoBackend struct {
	client DynamoAPI
	table  string
	logger zerolog.Logger
}

// annotationItem is the whole stored record. A mark is present or absent and
// carries nothing else.
type annotationItem struct {
	UserID  string `dynamodbav:"user_id"`
	SK      string `dynamodbav:"sk"`
	Kind    string `dynamodbav:"kind"`
	MovieID int64  `dynamodbav:"movie_id"`
}

// NewDynamoBackend creates a new DynamoDB annotation backend
func NewDynamoBackend(client DynamoAPI, table string, logger zerolog.Logger) *DynamoBackend {
	return &DynamoBackend{
		client: client,
		table:  table,
		logger: logger,
	}
}

func sortKey(kind Kind, movieID int64) string {
	return string(kind) + "#" + strconv.FormatInt(movieID, 10)
}

func (b *DynamoBackend) validateTable() error {
	if strings.TrimSpace(b.table) == "" {
		return errors.New("dynamodb: table name is required")
	}
	return nil
}

func (b *DynamoBackend) key(rec Record) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"user_id": &types.AttributeValueMemberS{Value: rec.UserID},
		"sk":      &types.AttributeValueMemberS{Value: sortKey(rec.Kind, rec.MovieID)},
	}
}

// Exists reports whether the mark is stored
func (b *DynamoBackend) Exists(ctx context.Context, rec Record) (bool, error) {
	if err := b.validateTable(); err != nil {
		return false, err
	}

	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            &b.table,
		Key:                  b.key(rec),
		ConsistentRead:       aws.Bool(true),
		ProjectionExpression: aws.String("sk"),
	})
	if err != nil {
		return false, fmt.Errorf("dynamodb: get annotation: %w", err)
	}

	return len(out.Item) > 0, nil
}

// Put stores the mark. A mark that already exists is left as is.
func (b *DynamoBackend) Put(ctx context.Context, rec Record) error {
	if err := b.validateTable(); err != nil {
		return err
	}

	item := annotationItem{
		UserID:  rec.UserID,
		SK:      sortKey(rec.Kind, rec.MovieID),
		Kind:    string(rec.Kind),
		MovieID: rec.MovieID,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dynamodb: marshal annotation: %w", err)
	}

	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &b.table,
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(sk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			b.logger.Debug().Str("sk", item.SK).Msg("Annotation already present")
			return nil
		}
		return fmt.Errorf("dynamodb: put annotation: %w", err)
	}

	return nil
}

// Delete removes the mark. A mark that is already gone is not an error.
func (b *DynamoBackend) Delete(ctx context.Context, rec Record) error {
	if err := b.validateTable(); err != nil {
		return err
	}

	_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &b.table,
		Key:                 b.key(rec),
		ConditionExpression: aws.String("attribute_exists(sk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			b.logger.Debug().Str("sk", sortKey(rec.Kind, rec.MovieID)).Msg("Annotation already removed")
			return nil
		}
		return fmt.Errorf("dynamodb: delete annotation: %w", err)
	}

	return nil
}

// ListIDs returns every movie ID the user has on the kind list
func (b *DynamoBackend) ListIDs(ctx context.Context, userID string, kind Kind) ([]int64, error) {
	if err := b.validateTable(); err != nil {
		return nil, err
	}

	ids := []int64{}
	paginator := dynamodb.NewQueryPaginator(b.client, &dynamodb.QueryInput{
		TableName:              &b.table,
		KeyConditionExpression: aws.String("user_id = :u AND begins_with(sk, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u":      &types.AttributeValueMemberS{Value: userID},
			":prefix": &types.AttributeValueMemberS{Value: string(kind) + "#"},
		},
		ProjectionExpression: aws.String("movie_id"),
		ConsistentRead:       aws.Bool(true),
	})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: query annotations: %w", err)
		}

		var items []annotationItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("dynamodb: unmarshal annotations: %w", err)
		}
		for _, item := range items {
			if item.MovieID <= 0 {
				continue
			}
			ids = append(ids, item.MovieID)
		}
	}

	return ids, nil
}
