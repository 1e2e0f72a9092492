// Package web exposes the timeline, flashcards and card sources as a JSON
// API.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/conorfennell/zeitstrahl/internal/flashcards"
	"github.com/conorfennell/zeitstrahl/internal/logger"
	"github.com/conorfennell/zeitstrahl/internal/sources"
	"github.com/conorfennell/zeitstrahl/internal/timeline"
)

// Config carries the settings of the HTTP layer.
type Config struct {
	MediaDir    string
	CORSOrigins []string
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	timeline *timeline.Service
	cards    *flashcards.Service
	sources  *sources.Syncer
	log      *logger.Logger
	cfg      Config
	router   *gin.Engine
}

// NewServer creates and configures a new server.
func NewServer(log *logger.Logger, tl *timeline.Service, cards *flashcards.Service, syncer *sources.Syncer, cfg Config) *Server {
	s := &Server{
		timeline: tl,
		cards:    cards,
		sources:  syncer,
		log:      log,
		cfg:      cfg,
		router:   gin.New(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	r := s.router
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.log))
	r.Use(CORS(s.cfg.CORSOrigins))
	r.MaxMultipartMemory = timeline.MaxImageSize

	r.GET("/healthcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if s.cfg.MediaDir != "" {
		r.Static("/media", s.cfg.MediaDir)
	}

	api := r.Group("/api")
	{
		api.GET("/timeline", s.handleGetTimeline())

		// Eras
		api.GET("/eras", s.handleListEras())
		api.POST("/eras", s.handleCreateEra())
		api.GET("/eras/:id", s.handleGetEra())
		api.PUT("/eras/:id", s.handleUpdateEra())

		// Events and their sub-events
		api.GET("/events", s.handleListEvents())
		api.POST("/events", s.handleCreateEvent())
		api.GET("/events/:id", s.handleGetEvent())
		api.PUT("/events/:id", s.handleUpdateEvent())
		api.POST("/events/:id/image", s.handleUploadImage(timeline.ImageEvent))

		// Persons and their achievements
		api.GET("/persons", s.handleListPersons())
		api.POST("/persons", s.handleCreatePerson())
		api.GET("/persons/:id", s.handleGetPerson())
		api.PUT("/persons/:id", s.handleUpdatePerson())
		api.POST("/persons/:id/image", s.handleUploadImage(timeline.ImagePerson))

		// Flashcards
		api.GET("/cards", s.handleListCards())
		api.POST("/cards/generate", s.handleGenerateCards())
		api.GET("/cards/:id", s.handleGetCard())
		api.PATCH("/cards/:id", s.handleEditCard())
		api.DELETE("/cards/:id", s.handleDeleteCard())
		api.POST("/cards/:id/review", s.handleReviewCard())

		// Card sources
		api.GET("/sources", s.handleListSources())
		api.POST("/sources", s.handleAddSource())
		api.DELETE("/sources/:id", s.handleDeleteSource())
		api.POST("/sync", s.handlePostSync())
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
