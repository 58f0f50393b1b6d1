package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/fundchain/internal/logic"
	"github.com/blues/fundchain/internal/model"
	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	campaigns CampaignService
}

func NewCampaignHandler(campaigns CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// GetCampaigns 获取项目列表
// 查询参数: search, category, sort, all, creator, status
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	showAll, _ := strconv.ParseBool(c.DefaultQuery("all", "false"))
	q := logic.DiscoveryQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Sort:     c.DefaultQuery("sort", logic.SortNewest),
		ShowAll:  showAll,
		Creator:  c.Query("creator"),
		Status:   model.CampaignStatus(c.Query("status")),
	}

	views, err := h.campaigns.Discover(c.Request.Context(), q)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", CampaignListResponse{
		Campaigns: views,
		Total:     len(views),
		Counts:    logic.CountByStatus(views),
	})
}

// GetCampaign 获取单个项目详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	view, err := h.campaigns.GetCampaign(c.Request.Context(), addr)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", view)
}

// CreateCampaign 创建项目
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req logic.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.campaigns.CreateCampaign(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Campaign created. It will be visible after admin approval.", result)
}

// Contribute 出资
func (h *CampaignHandler) Contribute(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.campaigns.Contribute(c.Request.Context(), addr, req.Amount)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Contribution confirmed", result)
}

// Approve 审批项目
func (h *CampaignHandler) Approve(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	result, err := h.campaigns.ApproveCampaign(c.Request.Context(), addr)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Campaign approved", result)
}

// Refresh 手动全量刷新
func (h *CampaignHandler) Refresh(c *gin.Context) {
	if err := h.campaigns.Refresh(c.Request.Context()); err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Campaigns refreshed", nil)
}

// GetCapabilities 钱包能力提示
func (h *CampaignHandler) GetCapabilities(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	caps, err := h.campaigns.Capabilities(c.Request.Context(), addr)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", caps)
}
