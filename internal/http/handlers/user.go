package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/taskmaster-backend/internal/http/response"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/services"
)

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
	taskService services.TaskService
}

func NewUserHandler(log *logger.Logger, userService services.UserService, taskService services.TaskService) *UserHandler {
	return &UserHandler{
		log:         log.With("handler", "UserHandler"),
		userService: userService,
		taskService: taskService,
	}
}

// GET /api/users/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": me})
}

// PUT /api/users/me
// body: { "first_name": "...", "last_name": "...", "email": "..." }, all optional
func (uh *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	u, err := uh.userService.UpdateMe(c.Request.Context(), services.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// GET /api/users/me/tasks
func (uh *UserHandler) ListMyTasks(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	res, err := uh.taskService.ListAssignedTo(c.Request.Context(), actor, page)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, res)
}
