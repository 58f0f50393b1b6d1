package store

import (
	"context"
	"fmt"
	"time"

	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/panjf2000/ants/v2"
)

// CampaignSource 项目列表的链上来源
type CampaignSource interface {
	GetDeployedCampaigns(ctx context.Context) ([]common.Address, error)
	GetCampaignDetails(ctx context.Context, address common.Address) (*model.Campaign, error)
}

// CampaignStore 项目列表镜像
type CampaignStore struct {
	source CampaignSource
	m      *mirror[model.Campaign]
}

// NewCampaignStore 创建项目镜像
func NewCampaignStore(source CampaignSource, pool *ants.Pool) *CampaignStore {
	return &CampaignStore{
		source: source,
		m:      newMirror[model.Campaign]("campaigns", pool),
	}
}

// Refresh 读取全部项目地址并逐个读取详情，整体替换列表
func (s *CampaignStore) Refresh(ctx context.Context) error {
	return s.m.refresh(ctx, s.load)
}

func (s *CampaignStore) load(ctx context.Context) ([]model.Campaign, error) {
	addresses, err := s.source.GetDeployedCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get deployed campaigns: %w", err)
	}

	return fanOut(ctx, s.m.pool, "campaign", addresses, func(ctx context.Context, address common.Address) (model.Campaign, error) {
		c, err := s.source.GetCampaignDetails(ctx, address)
		if err != nil {
			return model.Campaign{}, err
		}
		return *c, nil
	}), nil
}

// RefreshIfDirty 只在被标脏时刷新，返回是否刷新过
func (s *CampaignStore) RefreshIfDirty(ctx context.Context) (bool, error) {
	if !s.m.isDirty() {
		return false, nil
	}
	return true, s.Refresh(ctx)
}

// Invalidate 标脏，下一次读取前会整体刷新
func (s *CampaignStore) Invalidate() {
	s.m.invalidate()
}

// IsDirty 是否需要刷新
func (s *CampaignStore) IsDirty() bool {
	return s.m.isDirty()
}

// List 当前项目列表；若被标脏会先刷新，刷新失败时退回上一份列表
func (s *CampaignStore) List(ctx context.Context) ([]model.Campaign, error) {
	if _, err := s.RefreshIfDirty(ctx); err != nil {
		if _, _, loaded := s.m.list(); !loaded {
			return nil, err
		}
	}
	items, _, _ := s.m.list()
	return items, nil
}

// Get 按地址查找项目
func (s *CampaignStore) Get(ctx context.Context, address common.Address) (*model.Campaign, error) {
	campaigns, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range campaigns {
		if campaigns[i].Address == address {
			return &campaigns[i], nil
		}
	}
	return nil, nil
}

// LoadedAt 上次成功刷新的时间
func (s *CampaignStore) LoadedAt() time.Time {
	_, at, _ := s.m.list()
	return at
}

// OnReplace 每次整体替换后回调
func (s *CampaignStore) OnReplace(fn func([]model.Campaign)) {
	s.m.onReplace(fn)
}
