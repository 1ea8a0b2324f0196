package gateway

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/db"
	"liyu1981.xyz/platform-dashboard/pkg/fakeapi"
	"liyu1981.xyz/platform-dashboard/pkg/models"
	"liyu1981.xyz/platform-dashboard/pkg/observability"
	_ "liyu1981.xyz/platform-dashboard/pkg/testing"
)

const (
	testEmail    = "ops@example.com"
	testPassword = "secret"
)

func startFakeAPI(t *testing.T, platforms int) (*httptest.Server, []models.Platform) {
	common.SetTestLoggerNop()

	database, err := db.Open(db.UseMemorySqliteDialector(), fakeapi.Models()...)
	require.NoError(t, err)

	fa, seeded, err := fakeapi.New(database, fakeapi.Opts{
		Email:         testEmail,
		Password:      testPassword,
		SeedPlatforms: platforms,
		HashCost:      bcrypt.MinCost,
		Rand:          rand.New(rand.NewPCG(3, 5)),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(fa.Server)
	t.Cleanup(srv.Close)
	return srv, seeded
}

func TestClientAgainstFakeAPI(t *testing.T) {
	srv, seeded := startFakeAPI(t, 4)
	client := NewClient(srv.URL+"/", 5*time.Second)
	ctx := context.Background()

	token, err := client.Authenticate(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	platforms, err := client.ListPlatforms(ctx, token)
	require.NoError(t, err)
	require.Len(t, platforms, len(seeded))
	for i, p := range platforms {
		assert.Equal(t, seeded[i].ID, p.ID)
		assert.Equal(t, seeded[i].Name, p.Name)
		assert.Nil(t, p.Sensors)
	}

	detail, err := client.GetPlatformDetail(ctx, token, seeded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, seeded[0].ID, detail.ID)
	assert.Len(t, detail.Sensors, len(seeded[0].Sensors))

	records, err := client.GetSensorRecords(ctx, token, detail.Sensors[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, records)
	for _, r := range records {
		assert.False(t, r.Ts.IsZero())
	}
}

func TestClientErrors(t *testing.T) {
	srv, _ := startFakeAPI(t, 1)
	client := NewClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	_, err := client.Authenticate(ctx, testEmail, "wrong")
	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, OpAuthenticate, fe.Operation)
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)
	assert.True(t, fe.Unauthorized())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	_, err = client.ListPlatforms(ctx, "forged")
	fe, ok = AsFetchError(err)
	require.True(t, ok)
	assert.True(t, fe.Unauthorized())

	token, err := client.Authenticate(ctx, testEmail, testPassword)
	require.NoError(t, err)

	_, err = client.GetPlatformDetail(ctx, token, "no such platform")
	fe, ok = AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, OpGetPlatformDetail, fe.Operation)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.False(t, fe.Unauthorized())
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"r1","ts":"2024-05-01T10:00:00Z","value":21.5}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	records, err := client.GetSensorRecords(context.Background(), "tok", "a/b")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "/api/Records/a%2Fb", gotPath)
	require.Len(t, records, 1)
	assert.Equal(t, 21.5, records[0].Value)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), records[0].Ts.UTC())
}

func TestClientMalformedResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		call   func(*Client) error
		check  func(*testing.T, *FetchError)
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `boom`,
			call: func(c *Client) error {
				_, err := c.ListPlatforms(context.Background(), "tok")
				return err
			},
			check: func(t *testing.T, fe *FetchError) {
				assert.Equal(t, http.StatusInternalServerError, fe.StatusCode)
				assert.ErrorIs(t, fe, ErrUnexpectedStatus)
				assert.Contains(t, fe.Error(), "boom")
			},
		},
		{
			name:   "invalid json",
			status: http.StatusOK,
			body:   `{"data": [`,
			call: func(c *Client) error {
				_, err := c.ListPlatforms(context.Background(), "tok")
				return err
			},
			check: func(t *testing.T, fe *FetchError) {
				assert.Equal(t, OpListPlatforms, fe.Operation)
				assert.NotErrorIs(t, fe, ErrUnexpectedStatus)
			},
		},
		{
			name:   "empty token",
			status: http.StatusOK,
			body:   `{"token": ""}`,
			call: func(c *Client) error {
				_, err := c.Authenticate(context.Background(), testEmail, testPassword)
				return err
			},
			check: func(t *testing.T, fe *FetchError) {
				assert.ErrorIs(t, fe, ErrEmptyToken)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := tt.call(NewClient(srv.URL, time.Second))
			fe, ok := AsFetchError(err)
			require.True(t, ok, "expected *FetchError, got %v", err)
			tt.check(t, fe)
		})
	}
}

func TestClientHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL, 0).ListPlatforms(ctx, "tok")
	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, 0, fe.StatusCode)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClientWaitsForLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	client.RateLimiterStore = NewRateLimiterStore(rate.Limit(1), 1)

	ctx := context.Background()
	_, err := client.ListPlatforms(ctx, "tok")
	require.NoError(t, err)

	// the second call in the same second cannot get a token before the deadline
	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = client.ListPlatforms(short, "tok")
	require.Error(t, err)

	// other operations have their own limiter
	_, err = client.GetSensorRecords(ctx, "tok", "s1")
	require.NoError(t, err)
}

func TestClientRecordsMetrics(t *testing.T) {
	srv, _ := startFakeAPI(t, 2)

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewCollector(reg)
	require.NoError(t, err)

	client := NewClient(srv.URL, 5*time.Second)
	client.Metrics = metrics
	ctx := context.Background()

	token, err := client.Authenticate(ctx, testEmail, testPassword)
	require.NoError(t, err)
	_, err = client.ListPlatforms(ctx, token)
	require.NoError(t, err)
	_, err = client.GetPlatformDetail(ctx, token, "missing")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FetchRequests.WithLabelValues(string(OpAuthenticate), observability.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FetchRequests.WithLabelValues(string(OpListPlatforms), observability.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FetchRequests.WithLabelValues(string(OpGetPlatformDetail), observability.OutcomeError)))
	assert.Equal(t, 3, testutil.CollectAndCount(metrics.FetchDurations))
}
