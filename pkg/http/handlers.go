package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

type SessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Empty credentials are let through; the session rejects them with its own
// user message.
var sessionRequestSchema = z.Struct(z.Shape{
	"Email":    z.String(),
	"Password": z.String(),
})

func (rs *RestfulServer) PostSession(c *gin.Context) {
	var req SessionRequest
	if err := sessionRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	if err := rs.Sync.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		rs.abortWithError(c, err)
		return
	}
	rs.respondView(c)
}

func (rs *RestfulServer) DeleteSession(c *gin.Context) {
	rs.Sync.Logout()
	rs.respondView(c)
}

func (rs *RestfulServer) TogglePlatformList(c *gin.Context) {
	if _, err := rs.Sync.TogglePlatformList(); err != nil {
		rs.abortWithError(c, err)
		return
	}
	rs.respondView(c)
}

func (rs *RestfulServer) ToggleDashboard(c *gin.Context) {
	if _, err := rs.Sync.ToggleDashboard(); err != nil {
		rs.abortWithError(c, err)
		return
	}
	rs.respondView(c)
}

func (rs *RestfulServer) RefreshPlatforms(c *gin.Context) {
	if err := rs.Sync.RefreshPlatforms(); err != nil {
		rs.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, rs.Sync.View())
}

type PlatformRequest struct {
	Platform string `json:"platform"`
}

var platformRequestSchema = z.Struct(z.Shape{
	"Platform": z.String().Min(1).Required(),
})

func (rs *RestfulServer) PutSelectedPlatform(c *gin.Context) {
	var req PlatformRequest
	if err := platformRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	if err := rs.Sync.SelectPlatform(req.Platform); err != nil {
		rs.abortWithError(c, err)
		return
	}
	rs.respondView(c)
}

func (rs *RestfulServer) DeleteSelectedPlatform(c *gin.Context) {
	if err := rs.Sync.SelectPlatform(""); err != nil {
		rs.abortWithError(c, err)
		return
	}
	rs.respondView(c)
}

// PostViewDetails answers 202 while the detail is still being fetched; the
// screen switches once it arrives.
func (rs *RestfulServer) PostViewDetails(c *gin.Context) {
	if err := rs.Sync.ViewDetails(); err != nil {
		rs.abortWithError(c, err)
		return
	}

	view := rs.Sync.View()
	status := http.StatusOK
	if view.Detail == nil {
		status = http.StatusAccepted
	}
	c.JSON(status, view)
}

type SensorRequest struct {
	Sensor string `json:"sensor"`
}

var sensorRequestSchema = z.Struct(z.Shape{
	"Sensor": z.String(),
})

// PutSelectedSensor selects a sensor of the open platform; an empty sensor
// clears the selection.
func (rs *RestfulServer) PutSelectedSensor(c *gin.Context) {
	var req SensorRequest
	if err := sensorRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	if err := rs.Sync.SelectSensor(req.Sensor); err != nil {
		rs.abortWithError(c, err)
		return
	}
	rs.respondView(c)
}

func (rs *RestfulServer) PostBack(c *gin.Context) {
	if err := rs.Sync.Back(); err != nil {
		rs.abortWithError(c, err)
		return
	}
	rs.respondView(c)
}

func (rs *RestfulServer) GetTotals(c *gin.Context) {
	c.JSON(http.StatusOK, rs.Sync.Totals())
}

func (rs *RestfulServer) PutSensorsModal(c *gin.Context) {
	var req PlatformRequest
	if err := platformRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	if err := rs.Sync.OpenSensorsModal(req.Platform); err != nil {
		rs.abortWithError(c, err)
		return
	}
	rs.respondView(c)
}

func (rs *RestfulServer) DeleteSensorsModal(c *gin.Context) {
	rs.Sync.CloseSensorsModal()
	rs.respondView(c)
}

func (rs *RestfulServer) DeleteNotices(c *gin.Context) {
	rs.Sync.DismissNotices()
	rs.respondView(c)
}

func (rs *RestfulServer) GetView(c *gin.Context) {
	rs.respondView(c)
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
