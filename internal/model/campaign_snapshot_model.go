package model

import (
	"time"
)

// CampaignSnapshotModel 项目派生状态快照，每次全量替换
type CampaignSnapshotModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address     string         `json:"address" gorm:"not null;uniqueIndex"`
	Creator     string         `json:"creator" gorm:"not null;index"`
	Title       string         `json:"title"`
	Category    string         `json:"category" gorm:"index"`
	Goal        string         `json:"goal"`
	TotalRaised string         `json:"total_raised"`
	Backers     uint64         `json:"backers"`
	Deadline    time.Time      `json:"deadline"`
	Status      CampaignStatus `json:"status" gorm:"index"`
	Percentage  float64        `json:"percentage"`
	DaysLeft    int64          `json:"days_left"`
}

// TableName 自定义表名
func (CampaignSnapshotModel) TableName() string {
	return "campaign_snapshot"
}
