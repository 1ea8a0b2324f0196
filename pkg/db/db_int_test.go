package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/models"
)

func TestOpenWithEnvPath(t *testing.T) {
	common.SetTestLoggerNop()

	if os.Getenv(common.EnvKeyRunIntegrationTests) != "true" {
		t.Skip("Skipping integration test: RUN_INTEGRATION_TESTS environment variable not set")
	}

	testPath := filepath.Join(t.TempDir(), "test.db")
	t.Setenv(common.EnvKeyFakeAPIDbPath, testPath)

	instance, err := Open(UseSqliteDialector(), &models.Platform{})
	require.NoError(t, err)
	require.NotNil(t, instance.Conn)

	_, err = os.Stat(testPath)
	assert.NoError(t, err, "expected database file to be created at %s", testPath)
}
