package handler

import (
	"strconv"

	"seogen/internal/dto"
	"seogen/internal/middleware"
	"seogen/internal/models"
	"seogen/internal/repository"
	"seogen/internal/service"
	"seogen/internal/utils"

	"github.com/gin-gonic/gin"
)

// HistoryHandler 生成历史处理器
type HistoryHandler struct {
	generationRepo *repository.GenerationRepository
	quotaService   *service.QuotaService
}

// NewHistoryHandler 创建生成历史处理器
func NewHistoryHandler(generationRepo *repository.GenerationRepository, quotaService *service.QuotaService) *HistoryHandler {
	return &HistoryHandler{
		generationRepo: generationRepo,
		quotaService:   quotaService,
	}
}

// ListGenerations 获取当前用户的生成记录列表
// 按创建时间倒序,搜索过滤在客户端做,这里不分页
func (h *HistoryHandler) ListGenerations(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	generations, err := h.generationRepo.ListByUserID(userID)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	items := make([]dto.GenerationResponse, 0, len(generations))
	for _, g := range generations {
		items = append(items, toGenerationResponse(&g))
	}

	utils.SuccessResponse(c, dto.GenerationListResponse{
		Generations: items,
		Total:       int64(len(items)),
	})
}

// CreateGeneration 保存一条生成记录
// 客户端完整接收流式输出后调用,不完整或失败的流不应保存
func (h *HistoryHandler) CreateGeneration(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	generation := &models.Generation{
		UserID:  userID,
		Topic:   req.Topic,
		Keyword: req.Keyword,
		Output:  req.Output,
	}

	if err := h.generationRepo.Create(generation); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "保存成功", toGenerationResponse(generation))
}

// DeleteGeneration 删除当前用户的一条生成记录
func (h *HistoryHandler) DeleteGeneration(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的记录ID")
		return
	}

	rows, err := h.generationRepo.DeleteByIDAndUserID(uint(id), userID)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}
	if rows == 0 {
		utils.NotFound(c, "记录不存在")
		return
	}

	utils.SuccessWithMessage(c, "删除成功", gin.H{"success": true})
}

// GetCredits 查询当前用户的剩余额度
// 服务端根据记录数重新计算,客户端每次加载页面时调用一次
func (h *HistoryHandler) GetCredits(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	state, err := h.quotaService.CheckQuota(userID)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, dto.CreditsResponse{
		Used:      state.Used,
		Remaining: state.Remaining,
		Ceiling:   service.CreditCeiling,
	})
}

// toGenerationResponse 转换为响应结构
func toGenerationResponse(g *models.Generation) dto.GenerationResponse {
	return dto.GenerationResponse{
		ID:        g.ID,
		Topic:     g.Topic,
		Keyword:   g.Keyword,
		Output:    g.Output,
		CreatedAt: g.CreatedAt,
	}
}
