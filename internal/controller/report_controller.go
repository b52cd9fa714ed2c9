package controller

import (
	"learnsphere_backend/internal/service"
	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	ReportService *service.ReportService
}

func NewReportController(reportService *service.ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

// Grades godoc
// @Summary Grade report across the caller's enrollments
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.GradeReport}
// @Router /api/reports/grades [get]
func (c *ReportController) Grades(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	report, err := c.ReportService.Grades(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// Progress godoc
// @Summary Progress report across the caller's enrollments
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.CourseProgress}
// @Router /api/reports/progress [get]
func (c *ReportController) Progress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	report, err := c.ReportService.ProgressReport(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// Dashboard godoc
// @Summary Platform-wide totals
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.DashboardSummary}
// @Router /api/admin/dashboard [get]
func (c *ReportController) Dashboard(ctx *gin.Context) {
	summary, err := c.ReportService.Dashboard()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
