// Package gateway talks to the remote platform telemetry API. Every call is a
// single request/response without retries; failures come back as *FetchError.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"liyu1981.xyz/platform-dashboard/pkg/models"
)

type Operation string

const (
	OpAuthenticate      Operation = "authenticate"
	OpListPlatforms     Operation = "list_platforms"
	OpGetPlatformDetail Operation = "get_platform_detail"
	OpGetSensorRecords  Operation = "get_sensor_records"
)

type IGateway interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
	ListPlatforms(ctx context.Context, token string) ([]models.Platform, error)
	GetPlatformDetail(ctx context.Context, token, platformID string) (models.Platform, error)
	GetSensorRecords(ctx context.Context, token, sensorID string) ([]models.Record, error)
}

// FetchError carries the failed operation and its cause. StatusCode is 0 when
// the request never got an HTTP response.
type FetchError struct {
	Operation  Operation
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the API rejected the credentials or token.
func (e *FetchError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrEmptyToken       = errors.New("empty token in response")
)

// AsFetchError unwraps err into a *FetchError when there is one in the chain.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
