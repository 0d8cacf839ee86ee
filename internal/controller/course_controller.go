package controller

import (
	"errors"
	"strconv"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CourseController 课程、章节、课时、报名与进度的 HTTP 入口。
// 访问控制失败和资源不存在统一回 404，避免课程 ID 被枚举。
type CourseController struct {
	CourseService   *service.CourseService
	AccessService   *service.AccessService
	ProgressService *service.ProgressService
}

func NewCourseController(
	courseService *service.CourseService,
	accessService *service.AccessService,
	progressService *service.ProgressService,
) *CourseController {
	return &CourseController{
		CourseService:   courseService,
		AccessService:   accessService,
		ProgressService: progressService,
	}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// handleServiceError 把服务层错误映射成 HTTP 响应
func handleServiceError(ctx *gin.Context, err error) {
	switch {
	case util.IsNotFound(err):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAlreadyEnrolled):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrNotEnrolled):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrQuizPublished):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidReference):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// CourseRequest 创建/更新课程请求
// swagger:model CourseRequest
type CourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	CoverURL    string `json:"coverUrl"`
}

// CreateCourse godoc
// @Summary 创建课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body CourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Router /api/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course := &model.Course{
		OwnerID:     claims.UserID,
		Title:       req.Title,
		Description: req.Description,
		CoverURL:    req.CoverURL,
	}
	if err := c.CourseService.CreateCourse(course); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// GetCourse godoc
// @Summary 课程详情
// @Description 仅课程所有者和已报名学员可见
// @Tags 课程
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response "课程不存在或无权访问"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
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

	course, err := c.CourseService.GetCourse(courseID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Param   body body CourseRequest true "课程信息"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.UpdateCourse(courseID, claims.UserID, req.Title, req.Description, req.CoverURL)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// ListMyCourses godoc
// @Summary 我创建的课程
// @Tags 课程
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/my/courses [get]
func (c *CourseController) ListMyCourses(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	courses, total, err := c.CourseService.ListOwnedCourses(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.SuccessPage(ctx, courses, total, page, limit)
}

// ModuleRequest 创建章节请求
// swagger:model ModuleRequest
type ModuleRequest struct {
	Title    string `json:"title" binding:"required"`
	Position int    `json:"position"`
}

// CreateModule godoc
// @Summary 创建章节
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Param   body body ModuleRequest true "章节信息"
// @Success 201 {object} util.Response{data=model.CourseModule}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/modules [post]
func (c *CourseController) CreateModule(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	m, err := c.CourseService.CreateModule(courseID, claims.UserID, req.Title, req.Position)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, m)
}

// ListModules godoc
// @Summary 课程章节列表
// @Tags 课程
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.CourseModule}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/modules [get]
func (c *CourseController) ListModules(ctx *gin.Context) {
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

	modules, err := c.CourseService.ListModules(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}

// LessonRequest 创建课时请求
// swagger:model LessonRequest
type LessonRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content"`
	Position int    `json:"position"`
}

// CreateLesson godoc
// @Summary 创建课时
// @Description 创建成功后向已报名学员异步推送通知
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "章节ID"
// @Param   body body LessonRequest true "课时信息"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Failure 404 {object} util.Response
// @Router /api/modules/{id}/lessons [post]
func (c *CourseController) CreateLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	moduleID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.CourseService.CreateLesson(moduleID, claims.UserID, req.Title, req.Content, req.Position)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// ListLessons godoc
// @Summary 章节课时列表
// @Tags 课程
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "章节ID"
// @Success 200 {object} util.Response{data=[]model.Lesson}
// @Failure 404 {object} util.Response
// @Router /api/modules/{id}/lessons [get]
func (c *CourseController) ListLessons(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	moduleID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	m, err := c.CourseService.GetModule(moduleID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	allowed, err := c.AccessService.CanAccess(claims.UserID, m.CourseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !allowed {
		util.NotFound(ctx)
		return
	}

	lessons, err := c.CourseService.ListLessons(moduleID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, lessons)
}

// Enroll godoc
// @Summary 报名课程
// @Description 重复报名幂等，返回已存在的报名记录
// @Tags 报名
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	enrollment, err := c.AccessService.Enroll(claims.UserID, courseID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// Unenroll godoc
// @Summary 退出课程
// @Tags 报名
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "未报名该课程"
// @Router /api/courses/{id}/enroll [delete]
func (c *CourseController) Unenroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.AccessService.Unenroll(claims.UserID, courseID); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListMyEnrollments godoc
// @Summary 我报名的课程
// @Tags 报名
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment}
// @Router /api/my/enrollments [get]
func (c *CourseController) ListMyEnrollments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	enrollments, err := c.AccessService.ListUserEnrollments(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// CompleteLesson godoc
// @Summary 上报课时完成
// @Description 幂等：重复上报同一课时不会重复计数，返回最新进度
// @Tags 进度
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response{data=model.CourseProgress}
// @Failure 404 {object} util.Response "课时不存在或无权访问"
// @Router /api/lessons/{id}/complete [post]
func (c *CourseController) CompleteLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	lessonID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	progress, err := c.ProgressService.OnLessonCompleted(claims.UserID, lessonID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// GetMyProgress godoc
// @Summary 我在某课程的进度
// @Tags 进度
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.CourseProgress}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/progress [get]
func (c *CourseController) GetMyProgress(ctx *gin.Context) {
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

	progress, err := c.ProgressService.GetProgress(claims.UserID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// GetProgressReport godoc
// @Summary 课程进度报表
// @Description 课程所有者查看全体学员的进度
// @Tags 进度
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.CourseProgress}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/progress/report [get]
func (c *CourseController) GetProgressReport(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	course, err := c.CourseService.GetCourse(courseID)
	if err != nil || course.OwnerID != claims.UserID {
		util.NotFound(ctx)
		return
	}

	list, err := c.ProgressService.ListCourseProgress(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// ListMyCompletions godoc
// @Summary 我在某课程已完成的课时
// @Tags 进度
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.LessonCompletion}
// @Router /api/courses/{id}/completions [get]
func (c *CourseController) ListMyCompletions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	completions, err := c.ProgressService.ListCompletions(claims.UserID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, completions)
}
