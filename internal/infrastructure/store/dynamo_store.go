package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of *dynamodb.Client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

type DynamoConfig struct {
	Table    string
	Region   string
	Endpoint string // optional, for DynamoDB Local
}

// NewDynamoClient builds a client from the default AWS credential chain.
func NewDynamoClient(ctx context.Context, cfg DynamoConfig) (*dynamodb.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// DynamoStore keeps each key as one item of a table whose partition key is "pk".
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
}

// dynamoKV represents the DynamoDB item structure
type dynamoKV struct {
	Key       string `dynamodbav:"pk"`
	Payload   []byte `dynamodbav:"payload"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		now:       time.Now,
	}
}

func (s *DynamoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if len(result.Item) == 0 {
		return nil, false, nil
	}

	var item dynamoKV
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return item.Payload, true, nil
}

func (s *DynamoStore) Set(ctx context.Context, key string, value []byte) error {
	av, err := s.marshal(key, value)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// SetMany writes all values in a single TransactWriteItems call.
func (s *DynamoStore) SetMany(ctx context.Context, values map[string][]byte) error {
	items := make([]types.TransactWriteItem, 0, len(values))
	for key, value := range values {
		av, err := s.marshal(key, value)
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.tableName),
				Item:      av,
			},
		})
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return fmt.Errorf("failed to write items: %w", err)
	}
	return nil
}

func (s *DynamoStore) marshal(key string, value []byte) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(dynamoKV{
		Key:       key,
		Payload:   value,
		UpdatedAt: s.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return av, nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *DynamoStore) Close() error {
	return nil
}
