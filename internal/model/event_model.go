package model

import (
	"time"
)

// 监听的合约事件
const (
	EventCampaignCreated = "CampaignCreated"
	EventUserRegistered  = "UserRegistered"
	EventUserBanned      = "UserBanned"
	EventUserUnbanned    = "UserUnbanned"
	EventKYCLevelUpdated = "KYCLevelUpdated"

	EventFunded            = "Funded"
	EventCampaignApproved  = "CampaignApproved"
	EventCampaignCompleted = "CampaignCompleted"
)

// EventModel 链上事件记录
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ContractAddress string `json:"contract_address" gorm:"not null"`
	ContractName    string `json:"contract_name" gorm:"not null"`
	EventType       string `json:"event_type" gorm:"not null;index"`
	Subject         string `json:"subject" gorm:"index"` // 事件涉及的项目或用户地址
	TxHash          string `json:"tx_hash" gorm:"not null;uniqueIndex:idx_event_tx_log"`
	BlockNum        int64  `json:"block_num" gorm:"not null;index"`
	LogIndex        int64  `json:"log_index" gorm:"uniqueIndex:idx_event_tx_log"`
	Data            string `json:"data" gorm:"type:text"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
