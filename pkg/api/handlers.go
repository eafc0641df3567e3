package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/locum-dental/pkg/core/services"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type shiftQuery struct {
	Postcode  string  `form:"postcode"`
	RadiusKm  float64 `form:"radiusKm"`
	ShiftType string  `form:"shiftType"`
	MinRate   float64 `form:"minRate"`
}

type messageRequest struct {
	Text string `json:"text"`
}

func (s *Server) register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	result, err := services.Register(c.Request.Context(), s.deps.Store, s.deps.Sessions, s.deps.Logger, in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := services.Login(c.Request.Context(), s.deps.Store, s.deps.Sessions, s.deps.Logger, req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) logout(c *gin.Context) {
	if err := services.Logout(c.Request.Context(), s.deps.Sessions, s.deps.Logger, sessionFrom(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getProfile(c *gin.Context) {
	view, err := services.GetMyProfile(c.Request.Context(), s.deps.Store, s.deps.Logger, sessionFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) updateProfile(c *gin.Context) {
	var update services.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, err)
		return
	}

	view, err := services.UpdateProfile(c.Request.Context(), s.deps.Store, s.deps.Logger, sessionFrom(c), update)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) postShift(c *gin.Context) {
	var in services.PostShiftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	shifts, err := services.PostShift(c.Request.Context(), s.deps.Store, s.deps.Geocoder, s.deps.Logger,
		sessionFrom(c), s.deps.Config.MaxRecurrences, in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shifts)
}

func (s *Server) browseShifts(c *gin.Context) {
	var q shiftQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	results, err := services.BrowseShifts(c.Request.Context(), s.deps.Store, s.deps.Geocoder, s.deps.Logger,
		sessionFrom(c), s.deps.Config.Search.DefaultRadiusKm, services.ShiftSearch{
			Postcode:  q.Postcode,
			RadiusKm:  q.RadiusKm,
			ShiftType: q.ShiftType,
			MinRate:   q.MinRate,
		})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) browseLocums(c *gin.Context) {
	cards, err := services.BrowseLocums(c.Request.Context(), s.deps.Store, s.deps.Logger, sessionFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

func (s *Server) enquire(c *gin.Context) {
	detail, err := services.Enquire(c.Request.Context(), s.deps.Store, s.deps.Notifier, s.deps.Logger, sessionFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (s *Server) viewBooking(c *gin.Context) {
	detail, err := services.ViewBooking(c.Request.Context(), s.deps.Store, s.deps.Logger, sessionFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) acceptBooking(c *gin.Context) {
	detail, err := services.AcceptBooking(c.Request.Context(), s.deps.Store, s.deps.Notifier, s.deps.Logger, sessionFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) confirmBooking(c *gin.Context) {
	detail, err := services.ConfirmBooking(c.Request.Context(), s.deps.Store, s.deps.Notifier, s.deps.Logger, sessionFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) listMessages(c *gin.Context) {
	messages, err := services.ListMessages(c.Request.Context(), s.deps.Store, s.deps.Logger, sessionFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (s *Server) sendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	messages, err := services.SendMessage(c.Request.Context(), s.deps.Store, s.deps.Gate, s.deps.Logger, sessionFrom(c), c.Param("id"), req.Text)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, messages)
}

func (s *Server) pendingReviews(c *gin.Context) {
	pending, err := services.PendingReviews(c.Request.Context(), s.deps.Store, s.deps.Logger, sessionFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pending)
}

func (s *Server) submitReview(c *gin.Context) {
	var in services.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	review, err := services.SubmitReview(c.Request.Context(), s.deps.Store, s.deps.Logger, sessionFrom(c), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (s *Server) dashboard(c *gin.Context) {
	dash, err := services.GetDashboard(c.Request.Context(), s.deps.Store, s.deps.Logger, sessionFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
