package app

import (
	"learnhub_backend/docs"
	"learnhub_backend/internal/middleware"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	// 公共路由(无需登录)
	router.POST("/api/register", c.auth.Register)
	router.POST("/api/login", c.auth.Login)

	// 需要授权的路由
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(), middleware.ActivityMiddleware(repos.user))
	{
		api.GET("/me", c.auth.Me)

		// 课程与内容
		api.POST("/courses", c.course.CreateCourse)
		api.GET("/courses/:id", c.course.GetCourse)
		api.PUT("/courses/:id", c.course.UpdateCourse)
		api.GET("/my/courses", c.course.ListMyCourses)
		api.POST("/courses/:id/modules", c.course.CreateModule)
		api.GET("/courses/:id/modules", c.course.ListModules)
		api.POST("/modules/:id/lessons", c.course.CreateLesson)
		api.GET("/modules/:id/lessons", c.course.ListLessons)

		// 报名
		api.POST("/courses/:id/enroll", c.course.Enroll)
		api.DELETE("/courses/:id/enroll", c.course.Unenroll)
		api.GET("/my/enrollments", c.course.ListMyEnrollments)

		// 进度
		api.POST("/lessons/:id/complete", c.course.CompleteLesson)
		api.GET("/courses/:id/progress", c.course.GetMyProgress)
		api.GET("/courses/:id/progress/report", c.course.GetProgressReport)
		api.GET("/courses/:id/completions", c.course.ListMyCompletions)

		// 测验编写
		api.POST("/courses/:id/quizzes", c.quiz.CreateQuiz)
		api.GET("/courses/:id/quizzes", c.quiz.ListQuizzes)
		api.POST("/quizzes/:id/questions", c.quiz.AddQuestion)
		api.DELETE("/questions/:id", c.quiz.DeleteQuestion)
		api.POST("/quizzes/:id/publish", c.quiz.PublishQuiz)

		// 作答
		api.POST("/quizzes/:id/attempts", c.quiz.StartAttempt)
		api.PUT("/attempts/:id/answers", c.quiz.RecordAnswer)
		api.POST("/attempts/:id/complete", c.quiz.CompleteAttempt)
		api.GET("/attempts/:id", c.quiz.GetAttempt)

		// 通知
		api.GET("/my/notifications", c.notification.ListMyNotifications)

		// 管理员
		admin := api.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.RoleAdmin))
		{
			admin.POST("/notifications/retry", c.notification.RetryFailed)
		}
	}
}
