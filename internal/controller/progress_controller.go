package controller

import (
	"errors"

	"learnsphere_backend/internal/service"
	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
	Hub             *service.ProgressHub
}

func NewProgressController(progressService *service.ProgressService, hub *service.ProgressHub) *ProgressController {
	return &ProgressController{ProgressService: progressService, Hub: hub}
}

// Recompute godoc
// @Summary Recompute course progress from source data
// @Description Re-derives the percentage and writes it back if the cache drifted
// @Tags progress
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/courses/{id}/progress/recompute [post]
func (c *ProgressController) Recompute(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("id"))
	if courseID == 0 {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	progress, err := c.ProgressService.Recompute(claims.UserID, courseID)
	if err != nil {
		if errors.Is(err, util.ErrNotEnrolled) {
			util.Forbidden(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"progress": progress})
}

// ServeWS godoc
// @Summary Websocket stream of progress and profile events
// @Tags progress
// @Security BearerAuth
// @Router /ws/progress [get]
func (c *ProgressController) ServeWS(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.Hub.ServeWS(ctx.Writer, ctx.Request, claims.UserID); err != nil {
		util.LogInternalError(ctx, err)
	}
}
