package controller

import (
	"errors"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/service"
	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	LessonService *service.LessonService
}

func NewLessonController(lessonService *service.LessonService) *LessonController {
	return &LessonController{LessonService: lessonService}
}

// ListByCourse godoc
// @Summary Lessons of a course in display order
// @Tags lessons
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response{data=[]service.LessonView}
// @Router /api/courses/{id}/lessons [get]
func (c *LessonController) ListByCourse(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	if courseID == 0 {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var userID uint
	if claims := util.GetUserFromContext(ctx); claims != nil {
		userID = claims.UserID
	}

	lessons, err := c.LessonService.ListByCourse(courseID, userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, lessons)
}

// Detail godoc
// @Summary Lesson content
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} util.Response{data=service.LessonDetail}
// @Failure 404 {object} util.Response
// @Router /api/lessons/{id} [get]
func (c *LessonController) Detail(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("id"))
	if lessonID == 0 {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	var userID uint
	if claims := util.GetUserFromContext(ctx); claims != nil {
		userID = claims.UserID
	}

	detail, err := c.LessonService.GetDetail(lessonID, userID)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, detail)
}

// Complete godoc
// @Summary Mark a lesson as completed
// @Description Marks the lesson done and returns the refreshed course progress
// @Tags lessons
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/lessons/{id}/complete [post]
func (c *LessonController) Complete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	lessonID := util.MustParseUint(ctx.Param("id"))
	if lessonID == 0 {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	progress, err := c.LessonService.Complete(claims.UserID, lessonID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLessonNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrNotEnrolled):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"progress": progress})
}

type LessonRequest struct {
	CourseID      uint    `json:"courseId" binding:"required"`
	Title         string  `json:"title" binding:"required"`
	Content       string  `json:"content"`
	LessonOrder   int     `json:"lessonOrder"`
	CodeExample   string  `json:"codeExample"`
	VideoURL      string  `json:"videoUrl"`
	VideoDuration float64 `json:"videoDuration"`
}

// Create godoc
// @Summary Create a lesson
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body LessonRequest true "Lesson fields"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Router /api/admin/lessons [post]
func (c *LessonController) Create(ctx *gin.Context) {
	var req LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson := &model.Lesson{
		CourseID:      req.CourseID,
		Title:         req.Title,
		Content:       req.Content,
		LessonOrder:   req.LessonOrder,
		CodeExample:   req.CodeExample,
		VideoURL:      req.VideoURL,
		VideoDuration: req.VideoDuration,
	}
	if err := c.LessonService.CreateLesson(lesson); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// Update godoc
// @Summary Update a lesson
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Param body body LessonRequest true "Lesson fields"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 404 {object} util.Response
// @Router /api/admin/lessons/{id} [put]
func (c *LessonController) Update(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("id"))
	if lessonID == 0 {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	var req LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.LessonService.UpdateLesson(lessonID, &model.Lesson{
		Title:         req.Title,
		Content:       req.Content,
		LessonOrder:   req.LessonOrder,
		CodeExample:   req.CodeExample,
		VideoURL:      req.VideoURL,
		VideoDuration: req.VideoDuration,
	})
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, lesson)
}

// Delete godoc
// @Summary Delete a lesson
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/lessons/{id} [delete]
func (c *LessonController) Delete(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("id"))
	if lessonID == 0 {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	if err := c.LessonService.DeleteLesson(lessonID); err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
