package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNames(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_schema.sql", names[0])
}

func TestSchemaDoesNotDefineProcedures(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	for _, n := range names {
		body, err := migrationsFS.ReadFile("migrations/" + n)
		require.NoError(t, err)
		assert.NotContains(t, string(body), "validate_scan")
		assert.NotContains(t, string(body), "CREATE FUNCTION")
	}
}
