package fakeapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/db"
	"liyu1981.xyz/platform-dashboard/pkg/fakeapi/mocks"
	"liyu1981.xyz/platform-dashboard/pkg/models"
)

const (
	testEmail    = "ops@example.com"
	testPassword = "secret"
)

func setupTestAPI(t *testing.T, seed int) (*FakeAPI, []models.Platform) {
	common.SetTestLoggerNop()

	database, err := db.Open(db.UseMemorySqliteDialector(), Models()...)
	require.NoError(t, err)

	fa, seeded, err := New(database, Opts{
		Email:         testEmail,
		Password:      testPassword,
		SeedPlatforms: seed,
		HashCost:      bcrypt.MinCost,
		Rand:          rand.New(rand.NewPCG(7, 11)),
	})
	require.NoError(t, err)
	return fa, seeded
}

func serve(fa *FakeAPI, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	fa.Server.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, fa *FakeAPI) string {
	t.Helper()
	body, _ := json.Marshal(AuthRequest{Email: testEmail, Password: testPassword})
	w := serve(fa, http.MethodPost, "/api/Auth", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthCheck(t *testing.T) {
	fa, _ := setupTestAPI(t, 0)

	w := serve(fa, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPostAuth(t *testing.T) {
	fa, _ := setupTestAPI(t, 0)
	login(t, fa)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"wrong password", `{"email":"ops@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"email":"who@example.com","password":"secret"}`, http.StatusUnauthorized},
		{"missing password", `{"email":"ops@example.com"}`, http.StatusBadRequest},
		{"empty email", `{"email":"","password":"secret"}`, http.StatusBadRequest},
		{"not json", `email=ops`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(fa, http.MethodPost, "/api/Auth", "", []byte(tt.body))
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestRequireToken(t *testing.T) {
	fa, _ := setupTestAPI(t, 1)

	for _, path := range []string{"/api/Platforms", "/api/Platforms/x", "/api/Records/x"} {
		w := serve(fa, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)

		w = serve(fa, http.MethodGet, path, "forged", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestGetPlatforms(t *testing.T) {
	fa, seeded := setupTestAPI(t, 7)
	token := login(t, fa)

	w := serve(fa, http.MethodGet, "/api/Platforms", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 7)
	for i, entry := range resp.Data {
		assert.Equal(t, seeded[i].ID, entry["id"])
		assert.Equal(t, seeded[i].Fleet, entry["fleet"])
		assert.NotContains(t, entry, "sensors")
	}
}

func TestGetPlatform(t *testing.T) {
	fa, seeded := setupTestAPI(t, 3)
	token := login(t, fa)

	w := serve(fa, http.MethodGet, "/api/Platforms/"+seeded[1].ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data models.Platform `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, seeded[1].ID, resp.Data.ID)
	require.Len(t, resp.Data.Sensors, len(seeded[1].Sensors))

	w = serve(fa, http.MethodGet, "/api/Platforms/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRecords(t *testing.T) {
	fa, seeded := setupTestAPI(t, 1)
	token := login(t, fa)

	sensorID := seeded[0].Sensors[0].ID
	w := serve(fa, http.MethodGet, "/api/Records/"+sensorID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, recordsPerSensor)

	w = serve(fa, http.MethodGet, "/api/Records/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoreFailuresAreServerErrors(t *testing.T) {
	fa, _ := setupTestAPI(t, 0)

	ctrl := gomock.NewController(t)
	auth := mocks.NewMockIAuth(ctrl)
	telemetry := mocks.NewMockITelemetry(ctrl)
	fa.Store.WithServices(ServiceOpts{Auth: auth, Telemetry: telemetry})

	boom := errors.New("disk on fire")
	auth.EXPECT().Login(testEmail, testPassword).Return("", boom)
	auth.EXPECT().ValidToken("t").Return(true, nil).Times(2)
	auth.EXPECT().ValidToken("broken").Return(false, boom)
	telemetry.EXPECT().ListPlatforms().Return(nil, boom)
	telemetry.EXPECT().GetPlatform("p1").Return(models.Platform{}, boom)

	body, _ := json.Marshal(AuthRequest{Email: testEmail, Password: testPassword})
	assert.Equal(t, http.StatusInternalServerError, serve(fa, http.MethodPost, "/api/Auth", "", body).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(fa, http.MethodGet, "/api/Platforms", "t", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(fa, http.MethodGet, "/api/Platforms/p1", "t", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(fa, http.MethodGet, "/api/Platforms", "broken", nil).Code)
}

func TestNewKeepsExistingData(t *testing.T) {
	common.SetTestLoggerNop()

	database, err := db.Open(db.UseMemorySqliteDialector(), Models()...)
	require.NoError(t, err)

	opts := Opts{Email: testEmail, Password: testPassword, SeedPlatforms: 2, HashCost: bcrypt.MinCost}
	_, first, err := New(database, opts)
	require.NoError(t, err)

	fa, second, err := New(database, opts)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID)

	login(t, fa)
}
