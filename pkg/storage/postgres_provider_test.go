package storage

import (
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

func init() {
	// Load .env file from project root
	_ = godotenv.Load("../../.env")
}

// TestPostgreSQLFlowStore exercises the flow store against a real PostgreSQL
// instance. It is skipped when the required environment variables are not set.
func TestPostgreSQLFlowStore(t *testing.T) {
	host := os.Getenv("POSTGRES_HOST")
	user := os.Getenv("POSTGRES_USER")
	password := os.Getenv("POSTGRES_PASSWORD")
	dbName := os.Getenv("POSTGRES_DB")

	if host == "" || user == "" || password == "" || dbName == "" {
		t.Skip("Skipping PostgreSQL tests as credentials are not set")
	}

	port := 5432
	if p := os.Getenv("POSTGRES_PORT"); p != "" {
		parsed, err := strconv.Atoi(p)
		require.NoError(t, err)
		port = parsed
	}

	config := PostgreSQLProviderConfig{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		Database: dbName,
		SSLMode:  "disable",
		// A dedicated table keeps the test isolated from real data
		Table: fmt.Sprintf("flows_test_%d", os.Getpid()),
	}

	provider, err := NewPostgreSQLProvider(config)
	require.NoError(t, err)
	defer provider.Close()

	require.NoError(t, provider.Initialize())
	defer provider.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", config.Table))

	testFlowStore(t, provider.GetFlowStore())
}
