package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("all tables exist", func(t *testing.T) {
		for _, tableName := range []string{"ledgers", "ledger_positions", "ledger_trades", "ledger_performance"} {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_schema = 'public'
					AND table_name = $1
				)
			`, tableName).Scan(&exists)

			require.NoError(t, err, "failed to check table existence for %s", tableName)
			assert.True(t, exists, "table %s should exist", tableName)
		}
	})

	t.Run("ledger_trades has correct columns", func(t *testing.T) {
		expectedColumns := map[string]string{
			"ledger_name":   "character varying",
			"seq":           "integer",
			"trade_id":      "character varying",
			"executed_at":   "timestamp with time zone",
			"action":        "character varying",
			"symbol":        "character varying",
			"quantity":      "bigint",
			"price":         "numeric",
			"total":         "numeric",
			"balance_after": "numeric",
			"reasoning":     "text",
		}

		for colName, expectedType := range expectedColumns {
			var actualType string
			err := testDB.GetRawConn().QueryRow(`
				SELECT data_type
				FROM information_schema.columns
				WHERE table_name = 'ledger_trades' AND column_name = $1
			`, colName).Scan(&actualType)

			require.NoError(t, err, "column %s should exist in ledger_trades", colName)
			assert.Equal(t, expectedType, actualType, "column %s should have type %s", colName, expectedType)
		}
	})

	t.Run("migrating twice is a no-op", func(t *testing.T) {
		require.NoError(t, testDB.Migrate(migrationsURL()))
	})

	t.Run("negative balance is rejected", func(t *testing.T) {
		_, err := testDB.GetRawConn().Exec(
			`INSERT INTO ledgers (name, initial_balance, balance) VALUES ('neg', 0, -1)`)
		assert.Error(t, err)
	})
}
