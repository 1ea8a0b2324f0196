package fakeapi

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/db"
	"liyu1981.xyz/platform-dashboard/pkg/models"
)

type FakeAPI struct {
	Server *gin.Engine
	Store  *Store
}

type Opts struct {
	Email         string
	Password      string
	SeedPlatforms int
	HashCost      int
	// Rand drives the seeded sensor counts and values; nil means time-seeded.
	Rand *rand.Rand
}

// New builds a stub API over database with one user and opts.SeedPlatforms
// seeded platforms, which it also returns. An existing user or platform set is
// kept as it is.
func New(database *db.DB, opts Opts) (*FakeAPI, []models.Platform, error) {
	store := NewStore(database)
	store.HashCost = opts.HashCost

	exists, err := store.userExists(opts.Email)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		if err := store.Auth.CreateUser(opts.Email, opts.Password); err != nil {
			return nil, nil, err
		}
	}

	// a file database keeps what an earlier run seeded
	seeded, err := store.Telemetry.ListPlatforms()
	if err != nil {
		return nil, nil, err
	}
	if len(seeded) == 0 {
		rnd := opts.Rand
		if rnd == nil {
			seed := uint64(time.Now().UnixNano())
			rnd = rand.New(rand.NewPCG(seed, seed>>1))
		}
		if seeded, err = Seed(store.Telemetry, opts.SeedPlatforms, rnd); err != nil {
			return nil, nil, err
		}
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), accessLog())

	fa := &FakeAPI{Server: engine, Store: store}
	fa.Setup()
	return fa, seeded, nil
}

func (fa *FakeAPI) Setup() {
	fa.Server.GET("/healthz", fa.HealthCheck)
	fa.Server.POST("/api/Auth", fa.PostAuth)

	api := fa.Server.Group("/api", fa.RequireToken)
	{
		api.GET("/Platforms", fa.GetPlatforms)
		api.GET("/Platforms/:platform_id", fa.GetPlatform)
		api.GET("/Records/:sensor_id", fa.GetRecords)
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		telemetryLogger(common.LoggerCategoryHTTP).Debug("Served request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var authRequestSchema = z.Struct(z.Shape{
	"Email":    z.String().Min(1).Required(),
	"Password": z.String().Min(1).Required(),
})

func (fa *FakeAPI) PostAuth(c *gin.Context) {
	var req AuthRequest
	if err := authRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	token, err := fa.Store.Auth.Login(req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// RequireToken rejects requests without a bearer token issued by PostAuth.
func (fa *FakeAPI) RequireToken(c *gin.Context) {
	token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !found || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	valid, err := fa.Store.Auth.ValidToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown token"})
		return
	}
	c.Next()
}

func (fa *FakeAPI) GetPlatforms(c *gin.Context) {
	platforms, err := fa.Store.Telemetry.ListPlatforms()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": platforms})
}

func (fa *FakeAPI) GetPlatform(c *gin.Context) {
	platform, err := fa.Store.Telemetry.GetPlatform(c.Param("platform_id"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": platform})
}

func (fa *FakeAPI) GetRecords(c *gin.Context) {
	records, err := fa.Store.Telemetry.ListRecords(c.Param("sensor_id"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (fa *FakeAPI) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusOf(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
