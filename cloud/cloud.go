// Package cloud builds the AWS clients used by the annotation and profile stores.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options selects the region, credentials and an optional endpoint override
// (DynamoDB Local, MinIO, LocalStack)
type Options struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// LoadConfig loads the shared AWS configuration. Static credentials are used
// when both keys are set; otherwise the default provider chain applies.
func LoadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		return aws.Config{}, errors.New("aws: region is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(region),
	}

	if opts.AccessKey != "" || opts.SecretKey != "" || opts.SessionToken != "" {
		if opts.AccessKey == "" || opts.SecretKey == "" {
			return aws.Config{}, errors.New("aws: access key and secret key must be set together")
		}
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("aws: load config: %w", err)
	}

	return cfg, nil
}

// NewDynamoDB creates a DynamoDB client
func NewDynamoDB(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// NewS3 creates an S3 client. Custom endpoints use path-style addressing.
func NewS3(cfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// TableSpec describes a table with string keys
type TableSpec struct {
	Name         string
	PartitionKey string
	SortKey      string
}

// EnsureTable creates the table with on-demand billing unless it already exists,
// then waits for it to become active
func EnsureTable(ctx context.Context, client *dynamodb.Client, spec TableSpec) (bool, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return false, errors.New("dynamodb: table name is required")
	}

	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(spec.Name)})
	if err == nil {
		return false, nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return false, fmt.Errorf("dynamodb: describe table %s: %w", spec.Name, err)
	}

	attrs := []types.AttributeDefinition{
		{AttributeName: aws.String(spec.PartitionKey), AttributeType: types.ScalarAttributeTypeS},
	}
	keys := []types.KeySchemaElement{
		{AttributeName: aws.String(spec.PartitionKey), KeyType: types.KeyTypeHash},
	}
	if spec.SortKey != "" {
		attrs = append(attrs, types.AttributeDefinition{AttributeName: aws.String(spec.SortKey), AttributeType: types.ScalarAttributeTypeS})
		keys = append(keys, types.KeySchemaElement{AttributeName: aws.String(spec.SortKey), KeyType: types.KeyTypeRange})
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:            aws.String(spec.Name),
		AttributeDefinitions: attrs,
		KeySchema:            keys,
		BillingMode:          types.BillingModePayPerRequest,
	})
	if err != nil {
		return false, fmt.Errorf("dynamodb: create table %s: %w", spec.Name, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(spec.Name)}, 2*time.Minute); err != nil {
		return true, fmt.Errorf("dynamodb: wait for table %s: %w", spec.Name, err)
	}

	return true, nil
}

// TableStatus returns the table's status, e.g. ACTIVE
func TableStatus(ctx context.Context, client *dynamodb.Client, name string) (string, error) {
	out, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err != nil {
		return "", fmt.Errorf("dynamodb: describe table %s: %w", name, err)
	}
	if out.Table == nil {
		return "", fmt.Errorf("dynamodb: describe table %s: empty response", name)
	}
	return string(out.Table.TableStatus), nil
}
