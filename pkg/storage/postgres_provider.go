package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgreSQLProvider implements the StorageProvider interface using PostgreSQL
type PostgreSQLProvider struct {
	db        *sql.DB
	flowStore *PostgreSQLFlowStore
}

// PostgreSQLProviderConfig contains configuration for the PostgreSQL provider
type PostgreSQLProviderConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Table    string
}

// NewPostgreSQLProvider creates a new PostgreSQL storage provider
func NewPostgreSQLProvider(config PostgreSQLProviderConfig) (*PostgreSQLProvider, error) {
	if config.Port == 0 {
		config.Port = 5432
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}
	if config.Table == "" {
		config.Table = "flows"
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Database, config.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgreSQLProvider{
		db:        db,
		flowStore: NewPostgreSQLFlowStore(db, config.Table),
	}, nil
}

// Initialize sets up the storage backend
func (p *PostgreSQLProvider) Initialize() error {
	if err := p.flowStore.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize flow store: %w", err)
	}
	return nil
}

// Close cleans up resources
func (p *PostgreSQLProvider) Close() error {
	return p.db.Close()
}

// GetFlowStore returns a store for flow records
func (p *PostgreSQLProvider) GetFlowStore() FlowStore {
	return p.flowStore
}

// PostgreSQLFlowStore implements the FlowStore interface using PostgreSQL
type PostgreSQLFlowStore struct {
	db    *sql.DB
	table string
}

// NewPostgreSQLFlowStore creates a new PostgreSQL flow store
func NewPostgreSQLFlowStore(db *sql.DB, table string) *PostgreSQLFlowStore {
	return &PostgreSQLFlowStore{
		db:    db,
		table: table,
	}
}

// Initialize creates the flows table if it does not exist
func (s *PostgreSQLFlowStore) Initialize() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			flow_name TEXT PRIMARY KEY,
			definition TEXT NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			deleted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)
	`, s.table)

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create flows table: %w", err)
	}
	return nil
}

// Get retrieves a flow record by name
func (s *PostgreSQLFlowStore) Get(name string) (FlowRecord, error) {
	query := fmt.Sprintf(`
		SELECT flow_name, definition, enabled, deleted, created_at, updated_at
		FROM %s WHERE flow_name = $1
	`, s.table)

	var record FlowRecord
	err := s.db.QueryRow(query, name).Scan(
		&record.Name,
		&record.Definition,
		&record.Enabled,
		&record.Deleted,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return FlowRecord{}, ErrFlowNotFound
	}
	if err != nil {
		return FlowRecord{}, fmt.Errorf("failed to get flow: %w", err)
	}
	return record, nil
}

// List returns all flow records
func (s *PostgreSQLFlowStore) List() ([]FlowRecord, error) {
	query := fmt.Sprintf(`
		SELECT flow_name, definition, enabled, deleted, created_at, updated_at
		FROM %s ORDER BY flow_name
	`, s.table)

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer rows.Close()

	var records []FlowRecord
	for rows.Next() {
		var record FlowRecord
		if err := rows.Scan(
			&record.Name,
			&record.Definition,
			&record.Enabled,
			&record.Deleted,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan flow record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Create persists a new flow record
func (s *PostgreSQLFlowStore) Create(record FlowRecord) error {
	now := time.Now().Unix()
	if record.CreatedAt == 0 {
		record.CreatedAt = now
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (flow_name, definition, enabled, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (flow_name) DO NOTHING
	`, s.table)

	result, err := s.db.Exec(query,
		record.Name, record.Definition, record.Enabled, record.Deleted, record.CreatedAt, now)
	if err != nil {
		return fmt.Errorf("failed to create flow: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create flow: %w", err)
	}
	if affected == 0 {
		return ErrFlowExists
	}
	return nil
}

// Update replaces the serialized definition of an existing flow
func (s *PostgreSQLFlowStore) Update(name string, definition string) error {
	query := fmt.Sprintf(`UPDATE %s SET definition = $2, updated_at = $3 WHERE flow_name = $1`, s.table)
	return s.exec(query, name, definition, time.Now().Unix())
}

// Rename changes the unique name of a flow
func (s *PostgreSQLFlowStore) Rename(oldName, newName string) error {
	if _, err := s.Get(newName); err == nil {
		return ErrFlowExists
	}

	query := fmt.Sprintf(`UPDATE %s SET flow_name = $2, updated_at = $3 WHERE flow_name = $1`, s.table)
	return s.exec(query, oldName, newName, time.Now().Unix())
}

// Enable marks a flow as runnable
func (s *PostgreSQLFlowStore) Enable(name string) error {
	query := fmt.Sprintf(`UPDATE %s SET enabled = TRUE, updated_at = $2 WHERE flow_name = $1`, s.table)
	return s.exec(query, name, time.Now().Unix())
}

// Disable excludes a flow from the runnable set
func (s *PostgreSQLFlowStore) Disable(name string) error {
	query := fmt.Sprintf(`UPDATE %s SET enabled = FALSE, updated_at = $2 WHERE flow_name = $1`, s.table)
	return s.exec(query, name, time.Now().Unix())
}

// Delete soft-deletes a flow; the record is retained
func (s *PostgreSQLFlowStore) Delete(name string) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted = TRUE, updated_at = $2 WHERE flow_name = $1`, s.table)
	return s.exec(query, name, time.Now().Unix())
}

func (s *PostgreSQLFlowStore) exec(query string, args ...interface{}) error {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update flow: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update flow: %w", err)
	}
	if affected == 0 {
		return ErrFlowNotFound
	}
	return nil
}
