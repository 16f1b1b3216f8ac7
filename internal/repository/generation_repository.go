package repository

import (
	"seogen/internal/models"

	"gorm.io/gorm"
)

// GenerationRepository 生成记录数据访问层
type GenerationRepository struct {
	db *gorm.DB
}

// NewGenerationRepository 创建生成记录Repository
func NewGenerationRepository(db *gorm.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Create 创建生成记录
func (r *GenerationRepository) Create(generation *models.Generation) error {
	return r.db.Create(generation).Error
}

// GetByID 根据ID获取生成记录
func (r *GenerationRepository) GetByID(id uint) (*models.Generation, error) {
	var generation models.Generation
	err := r.db.First(&generation, id).Error
	if err != nil {
		return nil, err
	}
	return &generation, nil
}

// CountByUserID 统计用户的生成记录数量
// 额度判定必须每次重新统计,不信任客户端上报的计数
func (r *GenerationRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Generation{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListByUserID 获取用户的生成记录列表,按创建时间倒序
func (r *GenerationRepository) ListByUserID(userID uint) ([]models.Generation, error) {
	var generations []models.Generation
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&generations).Error
	return generations, err
}

// DeleteByIDAndUserID 删除用户自己的生成记录
// 返回实际删除的行数,用于区分记录不存在和不属于该用户的情况
func (r *GenerationRepository) DeleteByIDAndUserID(id uint, userID uint) (int64, error) {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Generation{})
	return result.RowsAffected, result.Error
}

// DeleteByUserID 删除用户的全部生成记录
func (r *GenerationRepository) DeleteByUserID(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Generation{}).Error
}
