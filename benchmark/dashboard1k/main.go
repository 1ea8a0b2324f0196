package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http/httptest"
	"time"

	"golang.org/x/crypto/bcrypt"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/db"
	"liyu1981.xyz/platform-dashboard/pkg/fakeapi"
	"liyu1981.xyz/platform-dashboard/pkg/gateway"
	"liyu1981.xyz/platform-dashboard/pkg/synchronizer"
)

var maxPlatforms int = 1000
var detailLimits = []int{1, 4, 8, 16, 32}

const (
	email    = "bench@example.com"
	password = "bench"
)

func main() {
	common.SetTestLoggerNop()

	database, err := db.Open(db.UseMemorySqliteDialector(), fakeapi.Models()...)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}

	startTime := time.Now()
	fa, seeded, err := fakeapi.New(database, fakeapi.Opts{
		Email:         email,
		Password:      password,
		SeedPlatforms: maxPlatforms,
		HashCost:      bcrypt.MinCost,
		Rand:          rand.New(rand.NewPCG(1, 1)),
	})
	if err != nil {
		log.Fatal("Failed to seed fake api:", err)
	}
	fmt.Printf("seeded %v platforms in %v seconds\n", len(seeded), time.Since(startTime).Seconds())

	wantSensors := 0
	for _, p := range seeded {
		wantSensors += len(p.Sensors)
	}

	srv := httptest.NewServer(fa.Server)
	defer srv.Close()
	fmt.Printf("fake api listening on %s\n", srv.URL)

	for _, limit := range detailLimits {
		runDashboard(srv.URL, limit, wantSensors)
	}
}

func runDashboard(baseURL string, limit int, wantSensors int) {
	s := synchronizer.New(synchronizer.Opts{
		Gateway:              gateway.NewClient(baseURL, 30*time.Second),
		MaxConcurrentDetails: limit,
	})
	defer s.Close()

	if err := s.Login(context.Background(), email, password); err != nil {
		log.Fatal("Failed to log in:", err)
	}
	s.Wait()

	startTime := time.Now()
	if _, err := s.ToggleDashboard(); err != nil {
		log.Fatal("Failed to open dashboard:", err)
	}
	s.Wait()
	usedTime := time.Since(startTime)

	totals := s.Totals()
	if totals.Sensors != wantSensors {
		log.Fatalf("expected %v sensors, got %v (%v notices)", wantSensors, totals.Sensors, len(s.View().Notices))
	}

	fmt.Printf(
		"max %2v detail fetches: loaded %v platforms / %v sensors: used time=%v seconds, throughput=%v fetch/second\n",
		limit, totals.Platforms, totals.Sensors, usedTime.Seconds(), float64(totals.Platforms)/usedTime.Seconds(),
	)
}
