package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/nav"
	"liyu1981.xyz/platform-dashboard/pkg/observability"
	"liyu1981.xyz/platform-dashboard/pkg/session"
	"liyu1981.xyz/platform-dashboard/pkg/synchronizer"
)

// RestfulServer lets a browser front end drive the dashboard: every user
// action is a request, and every successful action answers with the new view.
type RestfulServer struct {
	Server  *gin.Engine
	Sync    *synchronizer.Synchronizer
	Metrics *observability.Collector
}

func (rs *RestfulServer) Setup() {
	rs.Server.Use(rs.AccessLog)

	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.GET("/metrics", gin.WrapH(rs.Metrics.Handler()))

	api := rs.Server.Group("/api")
	{
		api.GET("/view", rs.GetView)

		api.POST("/session", rs.PostSession)
		api.DELETE("/session", rs.DeleteSession)

		api.POST("/platform-list/toggle", rs.TogglePlatformList)
		api.POST("/platforms/refresh", rs.RefreshPlatforms)

		api.PUT("/selection/platform", rs.PutSelectedPlatform)
		api.DELETE("/selection/platform", rs.DeleteSelectedPlatform)
		api.POST("/selection/platform/details", rs.PostViewDetails)
		api.PUT("/selection/sensor", rs.PutSelectedSensor)

		api.POST("/navigation/back", rs.PostBack)

		api.POST("/dashboard/toggle", rs.ToggleDashboard)
		api.GET("/dashboard/totals", rs.GetTotals)
		api.PUT("/dashboard/sensors-modal", rs.PutSensorsModal)
		api.DELETE("/dashboard/sensors-modal", rs.DeleteSensorsModal)

		api.DELETE("/notices", rs.DeleteNotices)
	}
}

func (rs *RestfulServer) AccessLog(c *gin.Context) {
	start := time.Now()
	c.Next()

	common.GetLoggerWith(
		common.LoggerNameRestfulServer,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryHTTP),
	).Debug("Served request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// statusOf maps an action error to the HTTP status the front end expects.
func statusOf(err error) int {
	var verr *session.ValidationError
	var aerr *session.AuthError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &aerr):
		return http.StatusUnauthorized
	case errors.Is(err, synchronizer.ErrUnknownPlatform), errors.Is(err, synchronizer.ErrUnknownSensor):
		return http.StatusNotFound
	case errors.Is(err, nav.ErrInvalidTransition), errors.Is(err, synchronizer.ErrNoPlatformSelected):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type userMessenger interface {
	UserMessage() string
}

func (rs *RestfulServer) abortWithError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}

	var um userMessenger
	if errors.As(err, &um) {
		body["message"] = um.UserMessage()
	}

	status := statusOf(err)
	if status == http.StatusInternalServerError {
		common.GetLoggerWith(common.LoggerNameRestfulServer).Error("Action failed", zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func (rs *RestfulServer) respondView(c *gin.Context) {
	c.JSON(http.StatusOK, rs.Sync.View())
}
