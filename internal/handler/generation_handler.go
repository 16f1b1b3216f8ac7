package handler

import (
	"errors"
	"net/http"

	"seogen/internal/dto"
	"seogen/internal/middleware"
	"seogen/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GenerationHandler 大纲生成处理器
type GenerationHandler struct {
	generationService *service.GenerationService
	quotaService      *service.QuotaService
	logger            *logrus.Logger
}

// NewGenerationHandler 创建大纲生成处理器
func NewGenerationHandler(generationService *service.GenerationService, quotaService *service.QuotaService, logger *logrus.Logger) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		quotaService:      quotaService,
		logger:            logger,
	}
}

// Generate 流式生成大纲
// 响应约定为纯文本:200时分块转发模型产出的文本增量,
// 失败时返回固定的英文错误文本(前端按文本匹配展示)。
// 服务端不落库,记录由客户端完整接收后通过 POST /api/generations 保存
// @Summary 流式生成大纲
// @Tags 生成
// @Accept json
// @Produce plain
// @Param request body dto.GenerateRequest true "生成请求"
// @Success 200 {string} string "流式文本"
// @Router /api/generate [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Missing topic or keyword")
		return
	}
	if req.Topic == "" || req.Keyword == "" {
		c.String(http.StatusBadRequest, "Missing topic or keyword")
		return
	}

	// 额度检查:每次重新统计记录数,不信任客户端状态
	state, err := h.quotaService.CheckQuota(userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("额度检查失败")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	if !state.Allowed {
		c.String(http.StatusForbidden, "Credit limit reached")
		return
	}

	// 单用户同时只允许一个生成流
	if err := h.generationService.AcquireStreamSlot(c.Request.Context(), userID); err != nil {
		if errors.Is(err, service.ErrStreamBusy) {
			c.String(http.StatusTooManyRequests, "Generation already in progress")
			return
		}
		h.logger.WithError(err).WithField("user_id", userID).Error("获取生成槽位失败")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	defer h.generationService.ReleaseStreamSlot(c.Request.Context(), userID)

	// 首个增量到达时才写响应头,这样建流失败还能返回500
	streamed := false
	err = h.generationService.StreamOutline(c.Request.Context(), req.Topic, req.Keyword, func(text string) error {
		if !streamed {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			streamed = true
		}
		if _, werr := c.Writer.WriteString(text); werr != nil {
			return werr
		}
		c.Writer.Flush()
		return nil
	})

	if err != nil {
		if !streamed {
			h.logger.WithError(err).WithField("user_id", userID).Error("流式生成失败")
			c.String(http.StatusInternalServerError, "Internal server error")
			return
		}
		// 响应头已发出,必须异常断开连接:正常返回会写出chunked终止块,
		// 客户端会把残缺的输出当成完整流保存下来
		h.logger.WithError(err).WithField("user_id", userID).Error("流式生成中断,断开连接")
		panic(http.ErrAbortHandler)
	}

	if !streamed {
		// 模型没有产出任何文本,返回空的200
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Status(http.StatusOK)
	}
}

// Probe 模型服务探活
// 发送一条固定消息做非流式调用,仅用于运维诊断
// @Summary 模型服务探活
// @Tags 生成
// @Produce json
// @Success 200 {object} dto.ProbeResponse
// @Router /api/test [get]
func (h *GenerationHandler) Probe(c *gin.Context) {
	message, err := h.generationService.Probe(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("模型服务探活失败")
		c.JSON(http.StatusInternalServerError, dto.ProbeResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.ProbeResponse{
		Success: true,
		Message: message,
	})
}
