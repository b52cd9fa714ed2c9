package controller

import (
	"errors"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/service"
	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// StartSession godoc
// @Summary Start a quiz attempt for a course
// @Tags quiz
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 201 {object} util.Response{data=service.SessionView}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/quiz/start [post]
func (c *QuizController) StartSession(ctx *gin.Context) {
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

	view, err := c.QuizService.StartSession(claims.UserID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNotEnrolled):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrQuestionNotFound):
			util.Error(ctx, 404, "Course has no quiz questions")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, view)
}

// CurrentQuestion godoc
// @Summary Current question of a running attempt
// @Tags quiz
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response
// @Router /api/quiz/sessions/{sessionId} [get]
func (c *QuizController) CurrentQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.QuizService.CurrentQuestion(ctx.Param("sessionId"), claims.UserID)
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

type SubmitAnswerRequest struct {
	// SelectedAnswer is the option index. Null means time ran out without a
	// selection and scores as incorrect.
	SelectedAnswer *int `json:"selectedAnswer"`
}

// SubmitAnswer godoc
// @Summary Answer the current question
// @Tags quiz
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param body body SubmitAnswerRequest true "Selected option"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/quiz/sessions/{sessionId}/answer [post]
func (c *QuizController) SubmitAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.SubmitAnswer(ctx.Param("sessionId"), claims.UserID, req.SelectedAnswer)
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

func (c *QuizController) sessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrSessionFinished):
		util.Error(ctx, 409, "Quiz session already finished")
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// ListQuestions godoc
// @Summary Questions of a course with answers
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response{data=[]model.QuizQuestion}
// @Router /api/admin/courses/{id}/questions [get]
func (c *QuizController) ListQuestions(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	if courseID == 0 {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	questions, err := c.QuizService.ListQuestions(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

type QuestionRequest struct {
	CourseID      uint     `json:"courseId" binding:"required"`
	Question      string   `json:"question" binding:"required"`
	Options       []string `json:"options" binding:"required,min=2"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// CreateQuestion godoc
// @Summary Create a quiz question
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body QuestionRequest true "Question fields"
// @Success 201 {object} util.Response{data=model.QuizQuestion}
// @Router /api/admin/questions [post]
func (c *QuizController) CreateQuestion(ctx *gin.Context) {
	var req QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.CorrectAnswer < 0 || req.CorrectAnswer >= len(req.Options) {
		util.BadRequest(ctx, "correctAnswer is out of range")
		return
	}

	question := &model.QuizQuestion{
		CourseID:      req.CourseID,
		Question:      req.Question,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
	}
	if err := c.QuizService.CreateQuestion(question); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// UpdateQuestion godoc
// @Summary Update a quiz question
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Param body body QuestionRequest true "Question fields"
// @Success 200 {object} util.Response{data=model.QuizQuestion}
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [put]
func (c *QuizController) UpdateQuestion(ctx *gin.Context) {
	questionID := util.MustParseUint(ctx.Param("id"))
	if questionID == 0 {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	var req QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.CorrectAnswer < 0 || req.CorrectAnswer >= len(req.Options) {
		util.BadRequest(ctx, "correctAnswer is out of range")
		return
	}

	question, err := c.QuizService.UpdateQuestion(questionID, &model.QuizQuestion{
		Question:      req.Question,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
	})
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary Delete a quiz question
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [delete]
func (c *QuizController) DeleteQuestion(ctx *gin.Context) {
	questionID := util.MustParseUint(ctx.Param("id"))
	if questionID == 0 {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	if err := c.QuizService.DeleteQuestion(questionID); err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
