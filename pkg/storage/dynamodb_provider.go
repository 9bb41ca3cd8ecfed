package storage

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// DynamoDBProvider implements the StorageProvider interface using DynamoDB
type DynamoDBProvider struct {
	client    dynamodbiface.DynamoDBAPI
	flowStore *DynamoDBFlowStore
}

// DynamoDBProviderConfig contains configuration for the DynamoDB provider
type DynamoDBProviderConfig struct {
	Region      string
	AccessKey   string
	SecretKey   string
	TablePrefix string
	Endpoint    string // Optional, for local DynamoDB
}

// NewDynamoDBProvider creates a new DynamoDB storage provider
func NewDynamoDBProvider(config DynamoDBProviderConfig) (*DynamoDBProvider, error) {
	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
	}

	if config.AccessKey != "" && config.SecretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		)
	}

	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := dynamodb.New(sess)

	return &DynamoDBProvider{
		client:    client,
		flowStore: NewDynamoDBFlowStore(client, config.TablePrefix+"flows"),
	}, nil
}

// Initialize sets up the storage backend
func (p *DynamoDBProvider) Initialize() error {
	if err := p.flowStore.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize flow store: %w", err)
	}
	return nil
}

// Close cleans up resources
func (p *DynamoDBProvider) Close() error {
	// The DynamoDB client has no persistent connection to close
	return nil
}

// GetFlowStore returns a store for flow records
func (p *DynamoDBProvider) GetFlowStore() FlowStore {
	return p.flowStore
}

// DynamoDBFlowStore implements the FlowStore interface using a single
// DynamoDB table keyed by flow name
type DynamoDBFlowStore struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

// NewDynamoDBFlowStore creates a new DynamoDB flow store
func NewDynamoDBFlowStore(client dynamodbiface.DynamoDBAPI, table string) *DynamoDBFlowStore {
	return &DynamoDBFlowStore{
		client: client,
		table:  table,
	}
}

// Initialize creates the flows table if it does not exist
func (s *DynamoDBFlowStore) Initialize() error {
	_, err := s.client.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err == nil {
		return nil
	}
	if aerr, ok := err.(awserr.Error); !ok || aerr.Code() != dynamodb.ErrCodeResourceNotFoundException {
		return fmt.Errorf("failed to describe table: %w", err)
	}

	_, err = s.client.CreateTable(&dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String("flow_name"),
				AttributeType: aws.String("S"),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String("flow_name"),
				KeyType:       aws.String("HASH"),
			},
		},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
	})
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return s.client.WaitUntilTableExists(&dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
}

// Get retrieves a flow record by name
func (s *DynamoDBFlowStore) Get(name string) (FlowRecord, error) {
	result, err := s.client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       flowNameKey(name),
	})
	if err != nil {
		return FlowRecord{}, fmt.Errorf("failed to get flow: %w", err)
	}
	if result.Item == nil {
		return FlowRecord{}, ErrFlowNotFound
	}

	var record FlowRecord
	if err := dynamodbattribute.UnmarshalMap(result.Item, &record); err != nil {
		return FlowRecord{}, fmt.Errorf("failed to unmarshal flow record: %w", err)
	}
	return record, nil
}

// List returns all flow records
func (s *DynamoDBFlowStore) List() ([]FlowRecord, error) {
	var records []FlowRecord

	err := s.client.ScanPages(&dynamodb.ScanInput{
		TableName: aws.String(s.table),
	}, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		for _, item := range page.Items {
			var record FlowRecord
			if err := dynamodbattribute.UnmarshalMap(item, &record); err == nil {
				records = append(records, record)
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	return records, nil
}

// Create persists a new flow record
func (s *DynamoDBFlowStore) Create(record FlowRecord) error {
	now := time.Now().Unix()
	if record.CreatedAt == 0 {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	item, err := dynamodbattribute.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal flow record: %w", err)
	}

	_, err = s.client.PutItem(&dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(flow_name)"),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			return ErrFlowExists
		}
		return fmt.Errorf("failed to create flow: %w", err)
	}
	return nil
}

// Update replaces the serialized definition of an existing flow
func (s *DynamoDBFlowStore) Update(name string, definition string) error {
	return s.modify(name, func(record *FlowRecord) {
		record.Definition = definition
	})
}

// Rename changes the unique name of a flow
func (s *DynamoDBFlowStore) Rename(oldName, newName string) error {
	record, err := s.Get(oldName)
	if err != nil {
		return err
	}

	record.Name = newName
	record.UpdatedAt = time.Now().Unix()
	if err := s.put(record, true); err != nil {
		return err
	}

	_, err = s.client.DeleteItem(&dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       flowNameKey(oldName),
	})
	if err != nil {
		return fmt.Errorf("failed to remove old flow name: %w", err)
	}
	return nil
}

// Enable marks a flow as runnable
func (s *DynamoDBFlowStore) Enable(name string) error {
	return s.modify(name, func(record *FlowRecord) {
		record.Enabled = true
	})
}

// Disable excludes a flow from the runnable set
func (s *DynamoDBFlowStore) Disable(name string) error {
	return s.modify(name, func(record *FlowRecord) {
		record.Enabled = false
	})
}

// Delete soft-deletes a flow; the record is retained
func (s *DynamoDBFlowStore) Delete(name string) error {
	return s.modify(name, func(record *FlowRecord) {
		record.Deleted = true
	})
}

func (s *DynamoDBFlowStore) modify(name string, apply func(*FlowRecord)) error {
	record, err := s.Get(name)
	if err != nil {
		return err
	}
	apply(&record)
	record.UpdatedAt = time.Now().Unix()
	return s.put(record, false)
}

func (s *DynamoDBFlowStore) put(record FlowRecord, mustNotExist bool) error {
	item, err := dynamodbattribute.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal flow record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}
	if mustNotExist {
		input.ConditionExpression = aws.String("attribute_not_exists(flow_name)")
	}

	if _, err := s.client.PutItem(input); err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			return ErrFlowExists
		}
		return fmt.Errorf("failed to put flow record: %w", err)
	}
	return nil
}

func flowNameKey(name string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"flow_name": {S: aws.String(name)},
	}
}
