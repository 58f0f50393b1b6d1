package logic

import (
	"sort"
	"strings"
	"time"

	"github.com/blues/fundchain/internal/model"
	"github.com/gosimple/slug"
)

// 排序方式
const (
	SortNewest      = "newest"
	SortEnding      = "ending"
	SortMostFunded  = "most-funded"
	SortMostBackers = "most-backers"
)

// Categories 可选的项目分类
var Categories = []string{"Medical", "Education", "Community", "Personal", "Creative", "Technology"}

// CampaignView 项目及其派生状态
type CampaignView struct {
	model.Campaign
	CampaignState
	Slug string `json:"slug"`
}

// NewCampaignView 计算派生状态
func NewCampaignView(c model.Campaign, now time.Time) CampaignView {
	return CampaignView{
		Campaign:      c,
		CampaignState: ClassifyCampaign(&c, now),
		Slug:          slug.Make(c.Title),
	}
}

// BuildViews 批量计算派生状态
func BuildViews(campaigns []model.Campaign, now time.Time) []CampaignView {
	views := make([]CampaignView, 0, len(campaigns))
	for _, c := range campaigns {
		views = append(views, NewCampaignView(c, now))
	}
	return views
}

// DiscoveryQuery 列表筛选条件
type DiscoveryQuery struct {
	Search   string
	Category string
	Sort     string
	ShowAll  bool   // 包含未审批/已关闭的项目
	Creator  string // 只看某个创建者
	Status   model.CampaignStatus
}

// Discover 筛选并排序，不修改输入
func Discover(views []CampaignView, q DiscoveryQuery) []CampaignView {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	category := strings.TrimSpace(q.Category)
	if strings.EqualFold(category, "all") {
		category = ""
	}

	result := make([]CampaignView, 0, len(views))
	for _, v := range views {
		if !q.ShowAll && !IsDiscoverable(&v.Campaign) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(v.Title), search) &&
			!strings.Contains(strings.ToLower(v.Description), search) {
			continue
		}
		if category != "" && v.Category != category {
			continue
		}
		if q.Creator != "" && !SameAddress(v.Creator.Hex(), q.Creator) {
			continue
		}
		if q.Status != "" && v.Status != q.Status {
			continue
		}
		result = append(result, v)
	}

	switch q.Sort {
	case SortNewest:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Deadline.After(result[j].Deadline) })
	case SortEnding:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Deadline.Before(result[j].Deadline) })
	case SortMostFunded:
		sort.SliceStable(result, func(i, j int) bool { return result[i].TotalRaised.GreaterThan(result[j].TotalRaised) })
	case SortMostBackers:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Backers > result[j].Backers })
	}
	return result
}

// CountByStatus 按状态统计
func CountByStatus(views []CampaignView) map[model.CampaignStatus]int {
	counts := make(map[model.CampaignStatus]int, len(model.CampaignStatuses))
	for _, s := range model.CampaignStatuses {
		counts[s] = 0
	}
	for _, v := range views {
		counts[v.Status]++
	}
	return counts
}
