package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type reviewRequest struct {
	Correct *bool `json:"correct" binding:"required"`
}

type editCardRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
}

type generateRequest struct {
	Type string `json:"type" binding:"required,oneof=person event"`
	ID   string `json:"id" binding:"required"`
}

// handleListCards lists all cards, or only due ones with ?due=true.
func (s *Server) handleListCards() gin.HandlerFunc {
	return func(c *gin.Context) {
		dueOnly := false
		if v := c.Query("due"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				respondBadRequest(c, err)
				return
			}
			dueOnly = b
		}
		cards, err := s.cards.List(c.Request.Context(), dueOnly)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cards)
	}
}

func (s *Server) handleGetCard() gin.HandlerFunc {
	return func(c *gin.Context) {
		card, err := s.cards.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

func (s *Server) handleEditCard() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req editCardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
		card, err := s.cards.Edit(c.Request.Context(), c.Param("id"), req.Question, req.Answer)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

func (s *Server) handleDeleteCard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.cards.Delete(c.Request.Context(), c.Param("id")); err != nil {
			s.respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// handleReviewCard records a review and returns the rescheduled card.
func (s *Server) handleReviewCard() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
		card, err := s.cards.Review(c.Request.Context(), c.Param("id"), *req.Correct)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

func (s *Server) handleGenerateCards() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
		res, err := s.cards.Generate(c.Request.Context(), req.Type, req.ID)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ok": true, "created": res.Created, "ids": res.IDs})
	}
}
