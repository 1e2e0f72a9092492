package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/conorfennell/zeitstrahl/internal/sources"
)

type addSourceRequest struct {
	Path string `json:"path" binding:"required"`
}

func (s *Server) handleListSources() gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := s.sources.List(c.Request.Context())
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func (s *Server) handleAddSource() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addSourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
		src, err := s.sources.Add(c.Request.Context(), req.Path)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, src)
	}
}

func (s *Server) handleDeleteSource() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			respondBadRequest(c, fmt.Errorf("invalid source id %q", c.Param("id")))
			return
		}
		if err := s.sources.Delete(c.Request.Context(), id); err != nil {
			s.respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// handlePostSync runs a sync in the foreground and reports per source.
func (s *Server) handlePostSync() gin.HandlerFunc {
	return func(c *gin.Context) {
		reports, err := s.sources.RunSync(c.Request.Context())
		if err != nil {
			s.respondError(c, err)
			return
		}
		if reports == nil {
			reports = []sources.SourceReport{}
		}
		c.JSON(http.StatusOK, gin.H{"sources": reports})
	}
}
