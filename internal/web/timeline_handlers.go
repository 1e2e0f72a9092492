package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/conorfennell/zeitstrahl/internal/timeline"
)

func (s *Server) handleGetTimeline() gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := s.timeline.Timeline(c.Request.Context())
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"eras": views})
	}
}

func (s *Server) handleListEras() gin.HandlerFunc {
	return func(c *gin.Context) {
		eras, err := s.timeline.ListEras(c.Request.Context())
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, eras)
	}
}

func (s *Server) handleGetEra() gin.HandlerFunc {
	return func(c *gin.Context) {
		era, err := s.timeline.GetEra(c.Request.Context(), c.Param("id"))
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, era)
	}
}

func (s *Server) handleCreateEra() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in timeline.EraInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondBadRequest(c, err)
			return
		}
		era, err := s.timeline.CreateEra(c.Request.Context(), in)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, era)
	}
}

func (s *Server) handleUpdateEra() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in timeline.EraInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondBadRequest(c, err)
			return
		}
		era, err := s.timeline.UpdateEra(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, era)
	}
}

func (s *Server) handleListEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := s.timeline.ListEvents(c.Request.Context())
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, events)
	}
}

func (s *Server) handleGetEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		ev, err := s.timeline.GetEvent(c.Request.Context(), c.Param("id"))
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ev)
	}
}

func (s *Server) handleCreateEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in timeline.EventInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondBadRequest(c, err)
			return
		}
		ev, err := s.timeline.CreateEvent(c.Request.Context(), in)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ev)
	}
}

// handleUpdateEvent replaces an event. The submitted sub-events are matched
// to the stored ones; leaving them out removes all sub-events.
func (s *Server) handleUpdateEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in timeline.EventInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondBadRequest(c, err)
			return
		}
		ev, err := s.timeline.UpdateEvent(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ev)
	}
}

func (s *Server) handleListPersons() gin.HandlerFunc {
	return func(c *gin.Context) {
		persons, err := s.timeline.ListPersons(c.Request.Context())
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, persons)
	}
}

func (s *Server) handleGetPerson() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := s.timeline.GetPerson(c.Request.Context(), c.Param("id"))
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func (s *Server) handleCreatePerson() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in timeline.PersonInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondBadRequest(c, err)
			return
		}
		p, err := s.timeline.CreatePerson(c.Request.Context(), in)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func (s *Server) handleUpdatePerson() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in timeline.PersonInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondBadRequest(c, err)
			return
		}
		p, err := s.timeline.UpdatePerson(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// handleUploadImage stores the multipart file "image" for an event or a
// person.
func (s *Server) handleUploadImage(owner string) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("image")
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		f, err := fh.Open()
		if err != nil {
			s.respondError(c, err)
			return
		}
		defer f.Close()

		name, err := s.timeline.SetImage(c.Request.Context(), owner, c.Param("id"), fh.Filename, f)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"image": name, "url": "/media/" + name})
	}
}
