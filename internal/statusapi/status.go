// Package statusapi implements the optional read-only HTTP status surface
// (SPEC_FULL.md §4.11): /healthz, /devices, /players. Grounded on the teacher's
// gin.New()+gin.Recovery()+http.Server router setup in
// cmd/driver/hasher-host/main.go's runAPIServer/handleHealth.
package statusapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HEM-RnD/fsct-host-sub000/internal/driver"
)

// HealthResponse mirrors the shape of the teacher's own health endpoint:
// a status string plus the fields a monitoring tool polls.
type HealthResponse struct {
	Status       string `json:"status"`
	DeviceCount  int    `json:"device_count"`
	PlayerUptime string `json:"uptime"`
}

type DeviceSummary struct {
	ManagedID string `json:"managed_id"`
}

type PlayerSummary struct {
	PlayerID uint32 `json:"player_id"`
	SelfID   string `json:"self_id"`
	Status   string `json:"status"`
}

// Server wraps a gin router and an http.Server bound to it.
type Server struct {
	httpServer *http.Server
	startTime  time.Time
}

// New builds the status router over d and binds it to addr; call Start to
// begin serving.
func New(d *driver.Driver, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{startTime: time.Now()}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:       "healthy",
			DeviceCount:  len(d.Devices().GetAllManagedIDs()),
			PlayerUptime: time.Since(s.startTime).String(),
		})
	})

	router.GET("/devices", func(c *gin.Context) {
		ids := d.Devices().GetAllManagedIDs()
		out := make([]DeviceSummary, 0, len(ids))
		for _, id := range ids {
			out = append(out, DeviceSummary{ManagedID: id.String()})
		}
		c.JSON(http.StatusOK, out)
	})

	router.GET("/players", func(c *gin.Context) {
		players := d.ListPlayers()
		out := make([]PlayerSummary, 0, len(players))
		for _, p := range players {
			out = append(out, PlayerSummary{
				PlayerID: uint32(p.ID),
				SelfID:   p.SelfID,
				Status:   p.State.Status.String(),
			})
		}
		c.JSON(http.StatusOK, out)
	})

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return s
}

// Start begins serving in a new goroutine; Serve errors other than a clean
// shutdown are sent on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("statusapi: serve: %w", err)
			return
		}
		errCh <- nil
	}()
	return errCh
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
