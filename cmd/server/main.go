package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/gateway"
	dashHttp "liyu1981.xyz/platform-dashboard/pkg/http"
	"liyu1981.xyz/platform-dashboard/pkg/observability"
	"liyu1981.xyz/platform-dashboard/pkg/synchronizer"
)

func main() {
	var err error

	err = godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file, copy .env.example to .env first if in development")
	}

	baseURL := strings.TrimSpace(common.EnvOr(common.EnvKeyDashAPIBaseURL, common.DefaultAPIBaseURL))
	httpHostPort := strings.TrimSpace(common.EnvOr(common.EnvKeyDashHttpHostPort, ":1080"))

	var apiRate float64
	var apiBurst, maxDetails int64
	var timeout time.Duration

	if apiRate, err = strconv.ParseFloat(common.EnvOr(common.EnvKeyDashAPIRate, "0"), 64); err != nil {
		log.Fatal("Invalid DASH_API_RATE, should be a float64 value")
	}
	if apiBurst, err = strconv.ParseInt(common.EnvOr(common.EnvKeyDashAPIBurst, "1"), 10, 64); err != nil {
		log.Fatal("Invalid DASH_API_BURST, should be an int value")
	}
	if maxDetails, err = strconv.ParseInt(common.EnvOr(common.EnvKeyDashMaxDetailFetches, "8"), 10, 64); err != nil {
		log.Fatal("Invalid DASH_MAX_DETAIL_FETCHES, should be an int value")
	}
	if timeout, err = time.ParseDuration(common.EnvOr(common.EnvKeyDashRequestTimeout, "15s")); err != nil {
		log.Fatal("Invalid DASH_REQUEST_TIMEOUT, should be a duration like 15s")
	}

	logger := common.GetLogger()

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	client := gateway.NewClient(baseURL, timeout)
	client.RateLimiterStore = gateway.NewRateLimiterStore(rate.Limit(apiRate), int(apiBurst))
	client.Metrics = metrics

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sync := synchronizer.New(synchronizer.Opts{
		Gateway:              client,
		Metrics:              metrics,
		MaxConcurrentDetails: int(maxDetails),
		Context:              ctx,
	})
	defer sync.Close()

	rs := &dashHttp.RestfulServer{
		Server:  gin.Default(),
		Sync:    sync,
		Metrics: metrics,
	}
	rs.Setup()

	logger.Info("dashboard created with:",
		zap.String("api_base_url", baseURL),
		zap.String("api_limiter", fmt.Sprintf("{\"rate\": %v, \"burst\": %v}", apiRate, apiBurst)),
		zap.Int64("max_detail_fetches", maxDetails),
		zap.Duration("request_timeout", timeout),
	)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
		sync.Close()
		os.Exit(0)
	}()

	logger.Info("Starting HTTP server on: " + httpHostPort)
	if err := rs.Server.Run(httpHostPort); err != nil {
		log.Fatalf("http server failed to serve: %v", err)
	}
}
