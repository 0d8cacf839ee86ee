package controller

import (
	"strconv"

	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	NotificationRepo    *repository.NotificationRepository
	NotificationService *service.NotificationService
}

func NewNotificationController(
	notificationRepo *repository.NotificationRepository,
	notificationService *service.NotificationService,
) *NotificationController {
	return &NotificationController{
		NotificationRepo:    notificationRepo,
		NotificationService: notificationService,
	}
}

// ListMyNotifications godoc
// @Summary 我的通知列表
// @Tags 通知
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/my/notifications [get]
func (c *NotificationController) ListMyNotifications(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	notifications, total, err := c.NotificationRepo.ListByUser(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.SuccessPage(ctx, notifications, total, page, limit)
}

// RetryFailed godoc
// @Summary 重投失败的通知
// @Description 管理员手动触发，幂等键保证不会产生重复通知
// @Tags 通知
// @Produce  json
// @Security BearerAuth
// @Param   limit query int false "单次重投上限"
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/notifications/retry [post]
func (c *NotificationController) RetryFailed(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))

	retried, err := c.NotificationService.RetryFailed(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"retried": retried})
}
