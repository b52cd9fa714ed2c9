package app

import (
	"time"

	"learnsphere_backend/docs"
	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/middleware"
	"learnsphere_backend/internal/model"
	"learnsphere_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)
	a.registerLearnerRoutes(router, c, repos, cfg)
	a.registerAdminRoutes(router, c, cfg)

	// Realtime events. Browsers cannot set websocket headers, so the token
	// rides in the query string.
	router.GET("/ws/progress", middleware.AuthMiddleware(cfg), c.progress.ServeWS)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// Catalog pages work for guests; a valid token adds enrollment state
		// and completion marks to the payload.
		catalog := public.Group("/")
		catalog.Use(middleware.TryAuthMiddleware(a.Config))
		{
			catalog.GET("/courses", c.course.List)
			catalog.GET("/courses/featured", c.course.Featured)
			catalog.GET("/courses/:id", c.course.Detail)
			catalog.GET("/courses/:id/lessons", c.lesson.ListByCourse)
			catalog.GET("/lessons/:id", c.lesson.Detail)
		}
	}
}

func (a *App) registerLearnerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user, time.Minute))
	{
		authGroup.GET("/me", c.auth.Me)
		authGroup.PUT("/profile", c.user.UpdateProfile)
		authGroup.POST("/profile/avatar", c.user.UploadAvatar)

		authGroup.GET("/my-learning", c.enrollment.MyLearning)
		authGroup.POST("/courses/:id/enroll", c.enrollment.Enroll)
		authGroup.DELETE("/courses/:id/enroll", c.enrollment.Unenroll)

		authGroup.POST("/lessons/:id/complete", c.lesson.Complete)

		authGroup.POST("/courses/:id/quiz/start", c.quiz.StartSession)
		authGroup.GET("/quiz/sessions/:sessionId", c.quiz.CurrentQuestion)
		authGroup.POST("/quiz/sessions/:sessionId/answer", c.quiz.SubmitAnswer)

		authGroup.POST("/courses/:id/progress/recompute", c.progress.Recompute)
		authGroup.GET("/reports/progress", c.report.Progress)
		authGroup.GET("/reports/grades", c.report.Grades)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/dashboard", c.report.Dashboard)

		admin.GET("/users", c.user.ListUsers)
		admin.DELETE("/users/:id", c.user.DeleteUser)

		admin.POST("/courses", c.course.Create)
		admin.PUT("/courses/:id", c.course.Update)
		admin.DELETE("/courses/:id", c.course.Delete)
		admin.POST("/courses/:id/image", c.course.UploadImage)

		admin.POST("/lessons", c.lesson.Create)
		admin.PUT("/lessons/:id", c.lesson.Update)
		admin.DELETE("/lessons/:id", c.lesson.Delete)
		admin.POST("/lessons/:id/video", c.course.UploadLessonVideo)

		admin.GET("/courses/:id/questions", c.quiz.ListQuestions)
		admin.POST("/questions", c.quiz.CreateQuestion)
		admin.PUT("/questions/:id", c.quiz.UpdateQuestion)
		admin.DELETE("/questions/:id", c.quiz.DeleteQuestion)
	}
}
