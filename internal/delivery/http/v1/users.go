package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/services"
)

type getUserResponse struct {
	ID          string                      `json:"id"`
	Email       string                      `json:"email,omitempty"`
	Name        string                      `json:"name"`
	Picture     string                      `json:"picture,omitempty"`
	Timezone    string                      `json:"timezone"`
	Lists       []string                    `json:"lists"`
	CustomLists map[models.VirtualKind]bool `json:"customLists"`
}

func newGetUserResponse(user *models.User) getUserResponse {
	customLists := make(map[models.VirtualKind]bool, len(models.VirtualKinds))
	for _, kind := range models.VirtualKinds {
		customLists[kind] = user.CustomListEnabled(kind)
	}
	return getUserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Picture:     user.Picture,
		Timezone:    user.Timezone,
		Lists:       user.Lists,
		CustomLists: customLists,
	}
}

type updateUserRequest struct {
	Name        *string                     `json:"name"`
	Timezone    *string                     `json:"timezone"`
	CustomLists map[models.VirtualKind]bool `json:"customLists"`
}

type subscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func (h *handlerImpl) HandleGetMe(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	user, err := h.users.GetUser(c, actor.UserID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", actor.UserID).
			Msg("failed to get user")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, newGetUserResponse(user))
}

func (h *handlerImpl) HandleUpdateMe(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	user, err := h.users.UpdateProfile(c, actor, services.UpdateProfileParams{
		Name:        req.Name,
		Timezone:    req.Timezone,
		CustomLists: req.CustomLists,
	})
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("user_id", actor.UserID).
			Msg("failed to update user")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, newGetUserResponse(user))
}

func (h *handlerImpl) HandleAddSubscription(c *gin.Context) {
	h.handleSubscription(c, h.users.AddPushSubscription)
}

func (h *handlerImpl) HandleRemoveSubscription(c *gin.Context) {
	h.handleSubscription(c, h.users.RemovePushSubscription)
}

func (h *handlerImpl) handleSubscription(
	c *gin.Context,
	apply func(context.Context, services.Actor, string) error,
) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	if err := apply(c, actor, req.Endpoint); err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", actor.UserID).
			Msg("failed to update push subscriptions")
		abort(c, newServiceError(err))
		return
	}

	c.Status(http.StatusNoContent)
}
