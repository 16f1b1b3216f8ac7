package models

import (
	"time"
)

// Generation 生成记录模型
// 记录一次完整接收成功的大纲生成,创建后不再修改,只支持删除
type Generation struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Topic     string    `gorm:"size:255;not null" json:"topic"`
	Keyword   string    `gorm:"size:255;not null" json:"keyword"`
	Output    string    `gorm:"type:text;not null" json:"output"`
	CreatedAt time.Time `json:"created_at"`

	// 关联
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Generation) TableName() string {
	return "generations"
}
