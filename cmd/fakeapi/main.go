package main

import (
	"log"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/db"
	"liyu1981.xyz/platform-dashboard/pkg/fakeapi"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file, copy .env.example to .env first if in development")
	}

	hostPort := strings.TrimSpace(common.EnvOr(common.EnvKeyFakeAPIHostPort, ":1081"))
	email := common.EnvOr(common.EnvKeyFakeAPIUserEmail, "demo@example.com")
	password := common.EnvOr(common.EnvKeyFakeAPIUserPassword, "demo")

	seedPlatforms, err := strconv.Atoi(common.EnvOr(common.EnvKeyFakeAPISeedPlatforms, "7"))
	if err != nil || seedPlatforms < 0 {
		log.Fatal("Invalid FAKEAPI_SEED_PLATFORMS, should be a non-negative int value")
	}

	var dbInstance *db.DB
	switch dbType := common.EnvOr(common.EnvKeyFakeAPIDBType, db.DBTypeMemory); dbType {
	case db.DBTypeFile, db.DBTypeMemory:
		dbInstance = db.GetInstance(db.UseDialector(), fakeapi.Models()...)
	default:
		log.Fatal("Unknown FAKEAPI_DB_TYPE: " + dbType)
	}

	logger := common.GetLoggerWith(common.LoggerNameFakeAPI)

	fa, seeded, err := fakeapi.New(dbInstance, fakeapi.Opts{
		Email:         email,
		Password:      password,
		SeedPlatforms: seedPlatforms,
	})
	if err != nil {
		log.Fatalf("failed to prepare fake api: %v", err)
	}

	logger.Info("fake api created with:",
		zap.String("user", email),
		zap.Int("platforms", len(seeded)),
	)

	logger.Info("Starting fake api on: " + hostPort)
	if err := fa.Server.Run(hostPort); err != nil {
		log.Fatalf("fake api failed to serve: %v", err)
	}
}
