// Package api exposes read-only HTTP and WebSocket views of a running
// trader. It never mutates strategy state.
package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/wamppus/don-futures-v1/config"
	"github.com/wamppus/don-futures-v1/internal/database"
	"github.com/wamppus/don-futures-v1/internal/events"
	"github.com/wamppus/don-futures-v1/internal/logging"
	"github.com/wamppus/don-futures-v1/internal/strategy"
)

const recentSignalLimit = 100

// StatusSource is the live trader view the API reads from.
type StatusSource interface {
	Status() strategy.Status
	SessionID() string
}

// Server serves the REST API and the WebSocket event stream.
type Server struct {
	cfg    config.Config
	source StatusSource
	repo   *database.Repository
	logger *logging.Logger
	hub    *Hub
	http   *http.Server

	mu     sync.Mutex
	recent []events.Event
}

// NewServer wires routes and subscribes to the event bus. repo may be nil
// when persistence is disabled; signal history then comes from an in-memory
// ring of recent signals. bus may be nil when no trader publishes in this
// process; the /ws route is then not served.
func NewServer(cfg config.Config, source StatusSource, repo *database.Repository, bus *events.Bus, logger *logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:    cfg,
		source: source,
		repo:   repo,
		logger: logger.WithComponent("api"),
		hub:    NewHub(logger),
	}

	if bus != nil {
		bus.SubscribeAll(func(ev events.Event) {
			s.hub.Broadcast(ev)
			if ev.Type == events.EventEntry || ev.Type == events.EventExit {
				s.remember(ev)
			}
		})
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	router.GET("/health", s.handleHealth)
	if bus != nil {
		router.GET("/ws", s.hub.HandleConnection)
	}
	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/status", s.handleStatus)
		apiGroup.GET("/signals", s.handleSignals)
		apiGroup.GET("/config", s.handleConfig)
	}

	s.http = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("api listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and closes WebSocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.http.Shutdown(ctx)
}

func (s *Server) remember(ev events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, ev)
	if len(s.recent) > recentSignalLimit {
		s.recent = s.recent[len(s.recent)-recentSignalLimit:]
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"session": s.source.SessionID(),
		"time":    time.Now().UTC(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.source.Status())
}

func (s *Server) handleSignals(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > recentSignalLimit {
		limit = recentSignalLimit
	}

	if s.repo != nil {
		records, err := s.repo.ListSignals(c.Request.Context(), s.source.SessionID(), limit)
		if err != nil {
			s.logger.Error("list signals failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "signal query failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"signals": records, "source": "database"})
		return
	}

	s.mu.Lock()
	recent := s.recent
	if len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}
	out := make([]events.Event, len(recent))
	copy(out, recent)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"signals": out, "source": "memory"})
}

func (s *Server) handleConfig(c *gin.Context) {
	// Credentials stay out of the response.
	cfg := s.cfg
	cfg.Feed.APIKey = ""
	cfg.Feed.Username = ""
	cfg.Database.URL = ""
	cfg.Redis.Password = ""
	c.JSON(http.StatusOK, cfg)
}
