package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-lists/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleGoogleLogin(c *gin.Context)
	HandleGoogleCallback(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleGetLists(c *gin.Context)
	HandleGetList(c *gin.Context)
	HandleCreateList(c *gin.Context)
	HandleUpdateList(c *gin.Context)
	HandleDeleteList(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleGetMe(c *gin.Context)
	HandleUpdateMe(c *gin.Context)
	HandleAddSubscription(c *gin.Context)
	HandleRemoveSubscription(c *gin.Context)
}

type handlerImpl struct {
	logger   zerolog.Logger
	auth     services.AuthService
	sessions services.SessionService
	users    services.UserService
	lists    services.ListService
	tasks    services.TaskService
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	sessionService services.SessionService,
	userService services.UserService,
	listService services.ListService,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger:   logger,
		auth:     authService,
		sessions: sessionService,
		users:    userService,
		lists:    listService,
		tasks:    taskService,
	}
}

// RegisterRoutes mounts the v1 API on router.
func RegisterRoutes(router gin.IRouter, h Handler) {
	router = router.Group("/api/v1")

	authRouter := router.Group("/auth")
	authRouter.POST("/login", h.HandleLogin)
	authRouter.POST("/refresh", h.HandleRefresh)
	authRouter.POST("/register", h.HandleRegister)
	authRouter.POST("/logout", h.HandleAuthMiddleware, h.HandleLogout)
	authRouter.GET("/google", h.HandleGoogleLogin)
	authRouter.GET("/google/callback", h.HandleGoogleCallback)

	listsRouter := router.Group("/lists", h.HandleAuthMiddleware)
	listsRouter.GET("", h.HandleGetLists)
	listsRouter.POST("", h.HandleCreateList)
	listsRouter.GET("/:id", h.HandleGetList)
	listsRouter.PATCH("/:id", h.HandleUpdateList)
	listsRouter.DELETE("/:id", h.HandleDeleteList)
	listsRouter.POST("/:id/tasks", h.HandleCreateTask)

	tasksRouter := router.Group("/tasks", h.HandleAuthMiddleware)
	tasksRouter.GET("/:id", h.HandleGetTask)
	tasksRouter.PATCH("/:id", h.HandleUpdateTask)
	tasksRouter.DELETE("/:id", h.HandleDeleteTask)

	usersRouter := router.Group("/users/me", h.HandleAuthMiddleware)
	usersRouter.GET("", h.HandleGetMe)
	usersRouter.PATCH("", h.HandleUpdateMe)
	usersRouter.POST("/subscriptions", h.HandleAddSubscription)
	usersRouter.DELETE("/subscriptions", h.HandleRemoveSubscription)
}
