package handler

import (
	"github.com/blues/fundchain/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorDetail 分类错误的附加信息
type ErrorDetail struct {
	Kind string `json:"kind,omitempty"`
	Hint string `json:"hint,omitempty"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// NewPagination 计算总页数
func NewPagination(page, pageSize int, total int64) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.TotalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return p
}

// 项目相关请求

// ContributeRequest 出资请求
type ContributeRequest struct {
	Amount string `json:"amount" binding:"required"` // ETH
}

// CampaignListResponse 项目列表
type CampaignListResponse struct {
	Campaigns interface{}                  `json:"campaigns"`
	Total     int                          `json:"total"`
	Counts    map[model.CampaignStatus]int `json:"counts"`
}

// 用户相关请求

// KYCRequest 设置认证等级
type KYCRequest struct {
	Level *model.KYCLevel `json:"level" binding:"required"`
}

// BanRequest 封禁用户
type BanRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// GateRequest 注册/KYC 预检
type GateRequest struct {
	Action   string `json:"action" binding:"required,oneof=create_campaign contribute"`
	Campaign string `json:"campaign"` // contribute 时的项目地址
}

// 登录相关请求

// NonceRequest 申请登录 nonce
type NonceRequest struct {
	Address string `json:"address" binding:"required"`
}

// VerifyRequest 提交签名
type VerifyRequest struct {
	Address   string `json:"address" binding:"required"`
	Nonce     string `json:"nonce" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// EventListResponse 事件列表
type EventListResponse struct {
	Events     []model.EventModel `json:"events"`
	Pagination Pagination         `json:"pagination"`
}
