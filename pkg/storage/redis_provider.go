package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisProvider implements the StorageProvider interface using Redis
type RedisProvider struct {
	client    *redis.Client
	flowStore *RedisFlowStore
}

// RedisProviderConfig contains configuration for the Redis provider
type RedisProviderConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisProvider creates a new Redis storage provider
func NewRedisProvider(config RedisProviderConfig) (*RedisProvider, error) {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "workflow:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisProvider{
		client:    client,
		flowStore: NewRedisFlowStore(client, config.KeyPrefix),
	}, nil
}

// Initialize sets up the storage backend
func (p *RedisProvider) Initialize() error {
	// Nothing to create up front; keys appear as flows are written
	return nil
}

// Close cleans up resources
func (p *RedisProvider) Close() error {
	return p.client.Close()
}

// GetFlowStore returns a store for flow records
func (p *RedisProvider) GetFlowStore() FlowStore {
	return p.flowStore
}

// RedisFlowStore implements the FlowStore interface using Redis. Each flow
// is one hash under {prefix}flow:{name}, with the set {prefix}flows holding
// all flow names for listing.
type RedisFlowStore struct {
	client *redis.Client
	prefix string
}

// NewRedisFlowStore creates a new Redis flow store
func NewRedisFlowStore(client *redis.Client, prefix string) *RedisFlowStore {
	return &RedisFlowStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisFlowStore) flowKey(name string) string {
	return s.prefix + "flow:" + name
}

func (s *RedisFlowStore) namesKey() string {
	return s.prefix + "flows"
}

// Get retrieves a flow record by name
func (s *RedisFlowStore) Get(name string) (FlowRecord, error) {
	ctx := context.Background()

	values, err := s.client.HGetAll(ctx, s.flowKey(name)).Result()
	if err != nil {
		return FlowRecord{}, fmt.Errorf("failed to get flow: %w", err)
	}
	if len(values) == 0 {
		return FlowRecord{}, ErrFlowNotFound
	}
	return recordFromHash(name, values), nil
}

// List returns all flow records
func (s *RedisFlowStore) List() ([]FlowRecord, error) {
	ctx := context.Background()

	names, err := s.client.SMembers(ctx, s.namesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	records := make([]FlowRecord, 0, len(names))
	for _, name := range names {
		record, err := s.Get(name)
		if err == ErrFlowNotFound {
			// Name set and hash drifted apart; skip the stale entry
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Create persists a new flow record
func (s *RedisFlowStore) Create(record FlowRecord) error {
	ctx := context.Background()

	added, err := s.client.SAdd(ctx, s.namesKey(), record.Name).Result()
	if err != nil {
		return fmt.Errorf("failed to create flow: %w", err)
	}
	if added == 0 {
		return ErrFlowExists
	}

	now := time.Now().Unix()
	if record.CreatedAt == 0 {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	if err := s.client.HSet(ctx, s.flowKey(record.Name), hashFromRecord(record)).Err(); err != nil {
		return fmt.Errorf("failed to create flow: %w", err)
	}
	return nil
}

// Update replaces the serialized definition of an existing flow
func (s *RedisFlowStore) Update(name string, definition string) error {
	return s.modify(name, func(record *FlowRecord) {
		record.Definition = definition
	})
}

// Rename changes the unique name of a flow
func (s *RedisFlowStore) Rename(oldName, newName string) error {
	ctx := context.Background()

	record, err := s.Get(oldName)
	if err != nil {
		return err
	}
	if _, err := s.Get(newName); err == nil {
		return ErrFlowExists
	}

	record.Name = newName
	record.UpdatedAt = time.Now().Unix()

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.flowKey(oldName))
	pipe.SRem(ctx, s.namesKey(), oldName)
	pipe.SAdd(ctx, s.namesKey(), newName)
	pipe.HSet(ctx, s.flowKey(newName), hashFromRecord(record))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to rename flow: %w", err)
	}
	return nil
}

// Enable marks a flow as runnable
func (s *RedisFlowStore) Enable(name string) error {
	return s.modify(name, func(record *FlowRecord) {
		record.Enabled = true
	})
}

// Disable excludes a flow from the runnable set
func (s *RedisFlowStore) Disable(name string) error {
	return s.modify(name, func(record *FlowRecord) {
		record.Enabled = false
	})
}

// Delete soft-deletes a flow; the record is retained
func (s *RedisFlowStore) Delete(name string) error {
	return s.modify(name, func(record *FlowRecord) {
		record.Deleted = true
	})
}

func (s *RedisFlowStore) modify(name string, apply func(*FlowRecord)) error {
	record, err := s.Get(name)
	if err != nil {
		return err
	}

	apply(&record)
	record.UpdatedAt = time.Now().Unix()

	ctx := context.Background()
	if err := s.client.HSet(ctx, s.flowKey(name), hashFromRecord(record)).Err(); err != nil {
		return fmt.Errorf("failed to update flow: %w", err)
	}
	return nil
}

func hashFromRecord(record FlowRecord) map[string]interface{} {
	return map[string]interface{}{
		"definition": record.Definition,
		"enabled":    boolField(record.Enabled),
		"deleted":    boolField(record.Deleted),
		"created_at": record.CreatedAt,
		"updated_at": record.UpdatedAt,
	}
}

func recordFromHash(name string, values map[string]string) FlowRecord {
	createdAt, _ := strconv.ParseInt(values["created_at"], 10, 64)
	updatedAt, _ := strconv.ParseInt(values["updated_at"], 10, 64)
	return FlowRecord{
		Name:       name,
		Definition: values["definition"],
		Enabled:    values["enabled"] == "1",
		Deleted:    values["deleted"] == "1",
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
