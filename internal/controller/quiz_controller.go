package controller

import (
	"errors"
	"net/http"

	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// QuizController 测验编写和作答的 HTTP 入口
type QuizController struct {
	CourseService  *service.CourseService
	AttemptService *service.AttemptService
	AccessService  *service.AccessService
}

func NewQuizController(courseService *service.CourseService, attemptService *service.AttemptService, accessService *service.AccessService) *QuizController {
	return &QuizController{
		CourseService:  courseService,
		AttemptService: attemptService,
		AccessService:  accessService,
	}
}

// QuizRequest 创建测验请求
// swagger:model QuizRequest
type QuizRequest struct {
	Title            string `json:"title" binding:"required"`
	Description      string `json:"description"`
	TimeLimitMinutes int    `json:"timeLimitMinutes" binding:"omitempty,min=0"`
}

// CreateQuiz godoc
// @Summary 创建测验
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Param   body body QuizRequest true "测验信息"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.CourseService.CreateQuiz(courseID, claims.UserID, req.Title, req.Description, req.TimeLimitMinutes)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// AddQuestion godoc
// @Summary 给测验加题
// @Description 仅未发布的测验允许修改题目
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测验ID"
// @Param   body body service.QuestionInput true "题目与选项"
// @Success 201 {object} util.Response{data=model.QuizQuestion}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "测验已发布，题目冻结"
// @Router /api/quizzes/{id}/questions [post]
func (c *QuizController) AddQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.CourseService.AddQuestion(quizID, claims.UserID, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/questions/{id} [delete]
func (c *QuizController) DeleteQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	questionID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.CourseService.DeleteQuestion(questionID, claims.UserID); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// PublishQuiz godoc
// @Summary 发布测验
// @Description 幂等：重复发布不变更发布时间，也不会重复推送通知
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id}/publish [post]
func (c *QuizController) PublishQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	quiz, err := c.CourseService.PublishQuiz(quizID, claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// ListQuizzes godoc
// @Summary 课程测验列表
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.Quiz}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	allowed, err := c.AccessService.CanAccess(claims.UserID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !allowed {
		util.NotFound(ctx)
		return
	}

	quizzes, err := c.CourseService.ListQuizzes(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	// 非课程所有者只能看到已发布的测验
	course, err := c.CourseService.GetCourse(courseID)
	if err == nil && course.OwnerID != claims.UserID {
		published := quizzes[:0]
		for _, q := range quizzes {
			if q.IsPublished {
				published = append(published, q)
			}
		}
		quizzes = published
	}
	util.Success(ctx, quizzes)
}

// StartAttempt godoc
// @Summary 开始作答
// @Description 幂等：同一用户对同一测验只有一条作答记录，重复调用返回已有记录
// @Tags 作答
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=model.QuizAttempt}
// @Failure 404 {object} util.Response "测验不存在、未发布或无权访问"
// @Router /api/quizzes/{id}/attempts [post]
func (c *QuizController) StartAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	attempt, err := c.AttemptService.Start(claims.UserID, quizID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// AnswerRequest 作答请求
// swagger:model AnswerRequest
type AnswerRequest struct {
	QuestionID uint `json:"questionId" binding:"required"`
	ChoiceID   uint `json:"choiceId" binding:"required"`
}

// RecordAnswer godoc
// @Summary 记录作答
// @Description 同一题重复作答覆盖之前的选择。限时测验超时后写入被拒绝，
// @Description 响应里带已评分的作答记录
// @Tags 作答
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "作答ID"
// @Param   body body AnswerRequest true "题目与所选选项"
// @Success 200 {object} util.Response{data=model.QuizAttempt}
// @Failure 400 {object} util.Response "题目或选项不属于该测验"
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "作答已完成或已超时"
// @Router /api/attempts/{id}/answers [put]
func (c *QuizController) RecordAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.AttemptService.RecordAnswer(claims.UserID, attemptID, req.QuestionID, req.ChoiceID)
	if err != nil {
		// 超时/已完成要把评分后的 attempt 一并带回去
		if errors.Is(err, util.ErrAttemptExpired) || errors.Is(err, util.ErrAttemptCompleted) {
			ctx.JSON(http.StatusConflict, util.Response{
				Code:    http.StatusConflict,
				Message: err.Error(),
				Data:    attempt,
			})
			return
		}
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// CompleteAttempt godoc
// @Summary 提交作答
// @Description 幂等：重复提交返回首次评分结果，分数不会变
// @Tags 作答
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "作答ID"
// @Success 200 {object} util.Response{data=model.QuizAttempt}
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id}/complete [post]
func (c *QuizController) CompleteAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	attempt, err := c.AttemptService.Complete(claims.UserID, attemptID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// GetAttempt godoc
// @Summary 作答详情
// @Tags 作答
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "作答ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id} [get]
func (c *QuizController) GetAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	attempt, answers, err := c.AttemptService.GetAttempt(claims.UserID, attemptID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"attempt": attempt, "answers": answers})
}
