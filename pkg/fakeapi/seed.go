package fakeapi

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/models"
)

const recordsPerSensor = 12

var (
	seedFleets      = []string{"north", "south", "harbor"}
	seedSensorTypes = []string{"temperature", "humidity", "pressure", "battery"}
)

// Seed creates count platforms with one to four sensors each and an hourly
// series of records per sensor. The created platforms are returned with their
// sensors.
func Seed(telemetry ITelemetry, count int, rnd *rand.Rand) ([]models.Platform, error) {
	end := time.Now().UTC().Truncate(time.Hour)
	created := make([]models.Platform, 0, count)

	for i := range count {
		platform := models.Platform{
			ID:    uuid.NewString(),
			Name:  fmt.Sprintf("Platform %04d", i+1),
			Fleet: seedFleets[i%len(seedFleets)],
			Img:   fmt.Sprintf("/img/platform-%d.png", i%5),
		}

		for j := range rnd.IntN(4) + 1 {
			sensor := models.Sensor{
				ID:   uuid.NewString(),
				Name: fmt.Sprintf("Sensor %d", j+1),
				Type: seedSensorTypes[rnd.IntN(len(seedSensorTypes))],
			}
			base := rnd.Float64() * 100
			for k := range recordsPerSensor {
				sensor.Records = append(sensor.Records, models.Record{
					ID:    uuid.NewString(),
					Ts:    end.Add(-time.Duration(recordsPerSensor-1-k) * time.Hour),
					Value: base + rnd.NormFloat64(),
				})
			}
			platform.Sensors = append(platform.Sensors, sensor)
		}

		if err := telemetry.CreatePlatform(&platform); err != nil {
			return created, err
		}
		created = append(created, platform)
	}

	telemetryLogger(common.LoggerCategoryPlatforms).Info("Seeded platforms", zap.Int("count", len(created)))
	return created, nil
}
