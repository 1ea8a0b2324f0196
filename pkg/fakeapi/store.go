// Package fakeapi is a local stand-in for the remote platform telemetry API.
// It serves the same REST contract from a gorm/sqlite store, for development,
// tests and benchmarks.
package fakeapi

import (
	"errors"

	"liyu1981.xyz/platform-dashboard/pkg/db"
	"liyu1981.xyz/platform-dashboard/pkg/models"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type IAuth interface {
	CreateUser(email, password string) error
	Login(email, password string) (string, error)
	ValidToken(token string) (bool, error)
}

type ITelemetry interface {
	CreatePlatform(platform *models.Platform) error
	CreateRecords(sensorID string, records []models.Record) error
	ListPlatforms() ([]models.Platform, error)
	GetPlatform(platformID string) (models.Platform, error)
	ListRecords(sensorID string) ([]models.Record, error)
}

type Store struct {
	Db        db.DB
	Auth      IAuth
	Telemetry ITelemetry

	// HashCost is the bcrypt cost for new users; zero means bcrypt.DefaultCost.
	HashCost int
}

type ServiceOpts struct {
	Auth      IAuth
	Telemetry ITelemetry
}

func (s *Store) WithServices(opts ServiceOpts) *Store {
	if opts.Auth != nil {
		s.Auth = opts.Auth
	}
	if opts.Telemetry != nil {
		s.Telemetry = opts.Telemetry
	}
	return s
}

// Models lists what the store migrates.
func Models() []any {
	return []any{&models.Platform{}, &models.Sensor{}, &models.Record{}, &User{}, &APIToken{}}
}

// NewStore wires the default services over database.
func NewStore(database *db.DB) *Store {
	s := &Store{Db: *database}
	return s.WithServices(ServiceOpts{
		Auth:      s.GetIAuth(),
		Telemetry: s.GetITelemetry(),
	})
}
