package fakeapi

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/models"
)

func telemetryLogger(category string) *zap.Logger {
	return common.GetLoggerWith(
		common.LoggerNameFakeAPI,
		zap.String(common.LoggerFieldCategory, category),
	)
}

// createPlatform stores a platform together with its sensors and their records.
func (s *Store) createPlatform(platform *models.Platform) error {
	if err := s.Db.Conn.Create(platform).Error; err != nil {
		return fmt.Errorf("create platform %s: %w", platform.ID, err)
	}
	telemetryLogger(common.LoggerCategoryPlatforms).Debug("Created platform",
		zap.String("platform_id", platform.ID),
		zap.Int("sensors", len(platform.Sensors)),
	)
	return nil
}

func (s *Store) createRecords(sensorID string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.sensorExists(sensorID); err != nil {
		return err
	}
	for i := range records {
		records[i].SensorID = sensorID
	}
	if err := s.Db.Conn.Create(&records).Error; err != nil {
		return fmt.Errorf("create records for sensor %s: %w", sensorID, err)
	}
	return nil
}

func (s *Store) listPlatforms() ([]models.Platform, error) {
	platforms := []models.Platform{}
	if err := s.Db.Conn.Order("name, id").Find(&platforms).Error; err != nil {
		return nil, err
	}
	return platforms, nil
}

func (s *Store) getPlatform(platformID string) (models.Platform, error) {
	var platform models.Platform
	err := s.Db.Conn.
		Preload("Sensors", func(tx *gorm.DB) *gorm.DB { return tx.Order("name, id") }).
		First(&platform, "id = ?", platformID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Platform{}, fmt.Errorf("platform %s: %w", platformID, ErrNotFound)
	}
	if err != nil {
		return models.Platform{}, err
	}
	if platform.Sensors == nil {
		platform.Sensors = []models.Sensor{}
	}
	return platform, nil
}

func (s *Store) listRecords(sensorID string) ([]models.Record, error) {
	if err := s.sensorExists(sensorID); err != nil {
		return nil, err
	}
	records := []models.Record{}
	if err := s.Db.Conn.Where("sensor_id = ?", sensorID).Order("ts, id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) sensorExists(sensorID string) error {
	var count int64
	if err := s.Db.Conn.Model(&models.Sensor{}).Where("id = ?", sensorID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("sensor %s: %w", sensorID, ErrNotFound)
	}
	return nil
}

type ITelemetryImpl struct {
	store *Store
}

func (it *ITelemetryImpl) CreatePlatform(platform *models.Platform) error {
	return it.store.createPlatform(platform)
}

func (it *ITelemetryImpl) CreateRecords(sensorID string, records []models.Record) error {
	return it.store.createRecords(sensorID, records)
}

func (it *ITelemetryImpl) ListPlatforms() ([]models.Platform, error) {
	return it.store.listPlatforms()
}

func (it *ITelemetryImpl) GetPlatform(platformID string) (models.Platform, error) {
	return it.store.getPlatform(platformID)
}

func (it *ITelemetryImpl) ListRecords(sensorID string) ([]models.Record, error) {
	return it.store.listRecords(sensorID)
}

func (s *Store) GetITelemetry() ITelemetry {
	return &ITelemetryImpl{store: s}
}
