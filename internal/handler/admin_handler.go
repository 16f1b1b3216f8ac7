package handler

import (
	"strconv"

	"seogen/internal/repository"
	"seogen/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理员处理器
type AdminHandler struct {
	userRepo       *repository.UserRepository
	generationRepo *repository.GenerationRepository
}

// NewAdminHandler 创建管理员处理器
func NewAdminHandler(userRepo *repository.UserRepository, generationRepo *repository.GenerationRepository) *AdminHandler {
	return &AdminHandler{
		userRepo:       userRepo,
		generationRepo: generationRepo,
	}
}

// ListUsers 获取所有用户
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.List()
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"users": users, "total": len(users)})
}

// DeleteUser 删除用户及其全部生成记录
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的用户ID")
		return
	}

	user, err := h.userRepo.GetByID(uint(id))
	if err != nil {
		utils.NotFound(c, "用户不存在")
		return
	}
	if user.IsAdmin {
		utils.Forbidden(c, "不能删除管理员账户")
		return
	}

	// sqlite默认不启用外键级联,先删记录再删用户
	if err := h.generationRepo.DeleteByUserID(uint(id)); err != nil {
		utils.InternalError(c, err.Error())
		return
	}
	if err := h.userRepo.Delete(uint(id)); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "用户已删除", gin.H{"success": true})
}
