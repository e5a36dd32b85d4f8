// Package health exposes the keep-alive HTTP endpoint hosting platforms
// probe to keep the bot awake.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Server is a minimal HTTP server answering liveness probes.
type Server struct {
	srv *http.Server
	log *logrus.Entry
}

func NewServer(port string, log *logrus.Entry) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	handler := func(c *gin.Context) {
		c.String(http.StatusOK, "Bot is running")
	}
	router.GET("/", handler)
	router.GET("/healthz", handler)

	return &Server{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start blocks serving probes until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.srv.Addr).Info("health server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
