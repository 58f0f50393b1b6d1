package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/fundchain/internal/contract"
	"github.com/blues/fundchain/internal/logic"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users     UserService
	campaigns CampaignService
}

func NewUserHandler(users UserService, campaigns CampaignService) *UserHandler {
	return &UserHandler{users: users, campaigns: campaigns}
}

// GetUsers 用户列表，offset/limit 分页
func (h *UserHandler) GetUsers(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(logic.DefaultUserLimit)))

	page, err := h.users.ListUsers(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", page)
}

// GetUser 单个钱包的注册状态
func (h *UserHandler) GetUser(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	view, err := h.users.GetUser(c.Request.Context(), addr)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", view)
}

// GetStats 注册统计
func (h *UserHandler) GetStats(c *gin.Context) {
	stats, err := h.users.GetStats(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", stats)
}

// CheckUsername 用户名是否可用
func (h *UserHandler) CheckUsername(c *gin.Context) {
	username := c.Param("username")
	available, err := h.users.IsUsernameAvailable(c.Request.Context(), username)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", gin.H{
		"username":  logic.NormalizeUsername(username),
		"available": available,
	})
}

// Register 注册运营钱包
func (h *UserHandler) Register(c *gin.Context) {
	var req logic.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Registration confirmed", result)
}

// SetKYC 设置认证等级
func (h *UserHandler) SetKYC(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	var req KYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	receipt, err := h.users.SetKYCLevel(c.Request.Context(), addr, *req.Level)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "KYC level updated", receipt)
}

// Ban 封禁用户
func (h *UserHandler) Ban(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	var req BanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	receipt, err := h.users.BanUser(c.Request.Context(), addr, req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "User banned", receipt)
}

// Unban 解除封禁
func (h *UserHandler) Unban(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	receipt, err := h.users.UnbanUser(c.Request.Context(), addr)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "User unbanned", receipt)
}

// CheckGate 注册/KYC 预检，contribute 需要项目地址
func (h *UserHandler) CheckGate(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	var req GateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	action, err := logic.ParseGateAction(req.Action)
	if err != nil {
		HandleError(c, contract.Validation(err.Error()))
		return
	}

	creator := ""
	if action == logic.ActionContribute {
		campaignAddr, err := logic.ParseAddress(req.Campaign)
		if err != nil {
			HandleError(c, err)
			return
		}
		campaign, err := h.campaigns.GetCampaign(c.Request.Context(), campaignAddr)
		if err != nil {
			HandleError(c, err)
			return
		}
		creator = campaign.Creator.Hex()
	}

	decision, err := h.users.CheckGate(c.Request.Context(), addr, action, creator)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", decision)
}
