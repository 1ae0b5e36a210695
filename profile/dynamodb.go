package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoRepository
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

var _ Repository = (*DynamoRepository)(nil)

// DynamoRepository stores one item per user, keyed by user_id
type DynamoRepository struct {
	client DynamoAPI
	table  string
	now    func() time.Time
}

type profileItem struct {
	UserID    string `dynamodbav:"user_id"`
	Name      string `dynamodbav:"name"`
	Email     string `dynamodbav:"email,omitempty"`
	ImageURL  string `dynamodbav:"image_url,omitempty"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// NewDynamoRepository creates a new profile repository
func NewDynamoRepository(client DynamoAPI, table string) *DynamoRepository {
	return &DynamoRepository{
		client: client,
		table:  table,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (r *DynamoRepository) validateTable() error {
	if strings.TrimSpace(r.table) == "" {
		return errors.New("dynamodb: table name is required")
	}
	return nil
}

func userKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"user_id": &types.AttributeValueMemberS{Value: userID},
	}
}

// Get loads the profile
func (r *DynamoRepository) Get(ctx context.Context, userID string) (*Profile, error) {
	if err := r.validateTable(); err != nil {
		return nil, err
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &r.table,
		Key:            userKey(userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dynamodb: get profile: %w", ErrBackend, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var item profileItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("dynamodb: unmarshal profile: %w", err)
	}

	updated, _ := time.Parse(time.RFC3339, item.UpdatedAt)
	return &Profile{
		UserID:    item.UserID,
		Name:      item.Name,
		Email:     item.Email,
		ImageURL:  item.ImageURL,
		UpdatedAt: updated,
	}, nil
}

// Put writes the whole profile
func (r *DynamoRepository) Put(ctx context.Context, p Profile) error {
	if err := r.validateTable(); err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(profileItem{
		UserID:    p.UserID,
		Name:      p.Name,
		Email:     p.Email,
		ImageURL:  p.ImageURL,
		UpdatedAt: r.now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("dynamodb: marshal profile: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.table,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("%w: dynamodb: put profile: %w", ErrBackend, err)
	}

	return nil
}

// SetImageURL records a new avatar URL, creating the profile when missing
func (r *DynamoRepository) SetImageURL(ctx context.Context, userID, imageURL string) error {
	if err := r.validateTable(); err != nil {
		return err
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        &r.table,
		Key:              userKey(userID),
		UpdateExpression: aws.String("SET image_url = :u, updated_at = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: imageURL},
			":t": &types.AttributeValueMemberS{Value: r.now().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: dynamodb: update profile image: %w", ErrBackend, err)
	}

	return nil
}
