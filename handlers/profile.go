package handlers

import (
	"errors"
	"net/http"

	profileRepo "expertmeet/database/repository/profile"
	"expertmeet/middleware"
	"expertmeet/models"
	"expertmeet/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	Profiles profileRepo.ProfileRepository
}

func NewProfileHandler(profiles profileRepo.ProfileRepository) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles}
}

// GetProviderHandler returns the public view of a provider profile.
func (h *ProfileHandler) GetProviderHandler(c *gin.Context) {
	profile, err := h.Profiles.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil || profile.Role != models.RoleProvider {
		if err == nil || errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondError(c, utils.NewAppError(utils.KindNotFound, "provider not found"))
			return
		}
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": profile.PublicView()})
}

func (h *ProfileHandler) GetMyProfileHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	profile, err := h.Profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondError(c, utils.NewAppError(utils.KindNotFound, "profile not set up yet"))
			return
		}
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateProfileHandler creates or replaces the caller's profile. The role always
// comes from the token.
func (h *ProfileHandler) UpdateProfileHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	role := models.Role(middleware.Role(c))
	if role != models.RoleClient && role != models.RoleProvider {
		utils.RespondError(c, utils.NewAppError(utils.KindForbidden, "token role %q cannot own a profile", role))
		return
	}
	if role == models.RoleClient && req.HourlyRate != "" {
		utils.JSONError(c, http.StatusBadRequest, "Only providers can set an hourly rate", "")
		return
	}

	profile := &models.Profile{
		ID:          userID,
		Role:        role,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Headline:    req.Headline,
		Specialty:   req.Specialty,
		HourlyRate:  req.HourlyRate,
	}
	if err := h.Profiles.Upsert(c.Request.Context(), profile); err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("profile updated", zap.String("userId", userID), zap.String("role", string(role)))
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (h *ProfileHandler) UpdateFCMTokenHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req models.UpdateFCMTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Profiles.UpdateFCMToken(c.Request.Context(), userID, req.Token); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondError(c, utils.NewAppError(utils.KindNotFound, "profile not set up yet"))
			return
		}
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated"})
}
