package service

import (
	"fmt"

	"seogen/internal/repository"
)

// CreditCeiling 每个用户的免费生成次数上限
const CreditCeiling = 10

// QuotaState 额度状态
// 由记录数实时推导,不单独存储
type QuotaState struct {
	Allowed   bool
	Used      int64
	Remaining int
}

// QuotaService 额度服务
type QuotaService struct {
	generationRepo *repository.GenerationRepository
}

// NewQuotaService 创建额度服务
func NewQuotaService(generationRepo *repository.GenerationRepository) *QuotaService {
	return &QuotaService{
		generationRepo: generationRepo,
	}
}

// CheckQuota 检查用户额度
// 每次都重新统计数据库中的记录数,只读不落库。
// 并发请求在临界值处可能同时通过检查,接受这种小幅超额
func (s *QuotaService) CheckQuota(userID uint) (*QuotaState, error) {
	used, err := s.generationRepo.CountByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("统计生成记录失败: %w", err)
	}

	remaining := CreditCeiling - int(used)
	if remaining < 0 {
		remaining = 0
	}

	return &QuotaState{
		Allowed:   used < CreditCeiling,
		Used:      used,
		Remaining: remaining,
	}, nil
}
