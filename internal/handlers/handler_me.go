package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobcrew/auth_backend/internal/apperrors"
	portssvc "github.com/jobcrew/auth_backend/internal/core/ports/services"
	"github.com/jobcrew/auth_backend/internal/dto"
	"github.com/jobcrew/auth_backend/internal/middleware"
)

// MeHandler describes the caller of an authenticated request.
type MeHandler struct {
	session portssvc.SessionSvcFacade
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(session portssvc.SessionSvcFacade) *MeHandler {
	return &MeHandler{session: session}
}

func registerMeRoutes(rg *gin.RouterGroup, h *MeHandler) {
	rg.GET("/me", h.GetMe)
}

// GetMe returns the identity and principal behind the access token.
func (h *MeHandler) GetMe(c *gin.Context) {
	identityID, ok := middleware.GetIdentityIDFromContext(c)
	if !ok {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	account, err := h.session.CurrentAccount(c.Request.Context(), identityID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToMeResponse(account))
}
