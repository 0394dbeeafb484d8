package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/services"
)

type createListRequest struct {
	Title string `json:"title"`
	Color string `json:"color"`
}

type updateListRequest struct {
	Title   *string  `json:"title"`
	Color   *string  `json:"color"`
	Tasks   []string `json:"tasks"`
	Members []string `json:"members"`
}

func (h *handlerImpl) HandleGetLists(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	opts, ok := h.viewOptions(c)
	if !ok {
		return
	}

	lists, err := h.lists.GetLists(c, actor, opts)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", actor.UserID).
			Msg("failed to get lists")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, lists)
}

func (h *handlerImpl) HandleGetList(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	opts, ok := h.viewOptions(c)
	if !ok {
		return
	}

	list, err := h.lists.GetList(c, actor, models.ParseListRef(c.Param("id")), opts)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("list_id", c.Param("id")).
			Msg("failed to get list")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *handlerImpl) HandleCreateList(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	list, err := h.lists.CreateList(c, actor, services.CreateListParams{
		Title: req.Title,
		Color: req.Color,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create list")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusCreated, list)
}

func (h *handlerImpl) HandleUpdateList(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	var req updateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	list, err := h.lists.UpdateList(c, actor, models.ParseListRef(c.Param("id")), services.UpdateListParams{
		Title:   req.Title,
		Color:   req.Color,
		Tasks:   req.Tasks,
		Members: req.Members,
	})
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("list_id", c.Param("id")).
			Msg("failed to update list")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *handlerImpl) HandleDeleteList(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	err := h.lists.DeleteList(c, actor, models.ParseListRef(c.Param("id")))
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("list_id", c.Param("id")).
			Msg("failed to delete list")
		abort(c, newServiceError(err))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) viewOptions(c *gin.Context) (services.ViewOptions, bool) {
	raw := c.Query("includeCompleted")
	if raw == "" {
		return services.ViewOptions{}, true
	}
	includeCompleted, err := strconv.ParseBool(raw)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse includeCompleted")
		abort(c, newBadRequestError("invalid includeCompleted"))
		return services.ViewOptions{}, false
	}
	return services.ViewOptions{IncludeCompleted: includeCompleted}, true
}
