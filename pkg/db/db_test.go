package db

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/models"
	_ "liyu1981.xyz/platform-dashboard/pkg/testing"
)

func tableExists(db *gorm.DB, tableName string) bool {
	var count int64
	err := db.Raw(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, tableName,
	).Scan(&count).Error
	return err == nil && count > 0
}

func TestOpenWithMemorySqlite(t *testing.T) {
	common.SetTestLoggerNop()

	instance, err := Open(UseMemorySqliteDialector(), &models.Platform{}, &models.Sensor{}, &models.Record{})
	require.NoError(t, err)

	for _, table := range []string{"platforms", "sensors", "records"} {
		assert.True(t, tableExists(instance.Conn, table), "expected table %q to exist after migration", table)
	}
}

func TestMemoryDatabasesAreIsolated(t *testing.T) {
	common.SetTestLoggerNop()

	first, err := Open(UseMemorySqliteDialector(), &models.Platform{})
	require.NoError(t, err)
	second, err := Open(UseMemorySqliteDialector(), &models.Platform{})
	require.NoError(t, err)

	require.NoError(t, first.Conn.Create(&models.Platform{ID: "p1", Name: "one"}).Error)

	var count int64
	require.NoError(t, second.Conn.Model(&models.Platform{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestUseDialectorFollowsEnv(t *testing.T) {
	t.Setenv(common.EnvKeyFakeAPIDBType, DBTypeFile)
	t.Setenv(common.EnvKeyFakeAPIDbPath, "somewhere.db")
	assert.Equal(t, "sqlite", UseDialector().Name())

	t.Setenv(common.EnvKeyFakeAPIDBType, "")
	assert.Equal(t, "sqlite", UseDialector().Name())
}

func TestSingletonConcurrency(t *testing.T) {
	common.SetTestLoggerNop()

	const goroutineCount = 20

	var wg sync.WaitGroup
	instances := make(chan *DB, goroutineCount)

	for range goroutineCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			instances <- GetInstance(UseMemorySqliteDialector(), &models.Platform{})
		}()
	}

	wg.Wait()
	close(instances)

	var first *DB
	for inst := range instances {
		require.NotNil(t, inst)
		if first == nil {
			first = inst
			continue
		}
		assert.Same(t, first, inst, "expected all instances to be the same (singleton)")
	}
}
