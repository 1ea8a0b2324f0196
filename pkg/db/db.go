package db

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"liyu1981.xyz/platform-dashboard/pkg/common"
)

const (
	DBTypeMemory = "memory"
	DBTypeFile   = "file"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

// Open connects with dialector and migrates the given models.
func Open(dialector gorm.Dialector, models ...any) (*DB, error) {
	var logger = common.GetLoggerWith(common.LoggerNameDB)

	conn, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("Connected to database with dialector", zap.String("dialector", dialector.Name()))

	if err := conn.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("Database migration completed", zap.Int("models", len(models)))

	if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable sqlite foreign key support: %w", err)
	}
	if err := conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return nil, fmt.Errorf("set sqlite journal mode: %w", err)
	}

	return &DB{Conn: conn}, nil
}

// GetInstance opens the process-wide database once. Later calls return the
// same instance and ignore their arguments.
func GetInstance(dialector gorm.Dialector, models ...any) *DB {
	once.Do(func() {
		db, err := Open(dialector, models...)
		if err != nil {
			log.Fatal("Failed to open database: ", err)
		}
		instance = db
	})
	return instance
}

func UseSqliteDialector() gorm.Dialector {
	return sqlite.Open(common.EnvOr(common.EnvKeyFakeAPIDbPath, "fakeapi.db"))
}

// UseMemorySqliteDialector returns a dialector for a fresh in-memory database.
// Each call names a different database, shared by the connections of one pool.
func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
}

// UseDialector picks the dialector for FAKEAPI_DB_TYPE, defaulting to memory.
func UseDialector() gorm.Dialector {
	switch common.EnvOr(common.EnvKeyFakeAPIDBType, DBTypeMemory) {
	case DBTypeFile:
		return UseSqliteDialector()
	default:
		return UseMemorySqliteDialector()
	}
}
