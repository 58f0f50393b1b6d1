package store

import (
	"context"
	"fmt"
	"time"

	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/panjf2000/ants/v2"
)

// UserPageSize 分页读取用户地址的页大小
const UserPageSize uint64 = 100

const maxPrealloc = UserPageSize * 10

// UserSource 用户列表的链上来源
type UserSource interface {
	TotalUsers(ctx context.Context) (uint64, error)
	GetUsers(ctx context.Context, offset, limit uint64) ([]common.Address, error)
	GetUserProfile(ctx context.Context, user common.Address) (*model.UserProfile, error)
}

// UserStore 用户列表镜像
type UserStore struct {
	source UserSource
	m      *mirror[model.UserProfile]
}

// NewUserStore 创建用户镜像
func NewUserStore(source UserSource, pool *ants.Pool) *UserStore {
	return &UserStore{
		source: source,
		m:      newMirror[model.UserProfile]("users", pool),
	}
}

// Refresh 整体重新读取用户
func (s *UserStore) Refresh(ctx context.Context) error {
	return s.m.refresh(ctx, s.load)
}

func (s *UserStore) load(ctx context.Context) ([]model.UserProfile, error) {
	total, err := s.source.TotalUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get total users: %w", err)
	}

	// totalUsers 来自链上，不直接用于预分配
	addresses := make([]common.Address, 0, min(total, maxPrealloc))
	for offset := uint64(0); offset < total; offset += UserPageSize {
		limit := UserPageSize
		if offset+limit > total {
			limit = total - offset
		}
		page, err := s.source.GetUsers(ctx, offset, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to get users %d-%d: %w", offset, offset+limit, err)
		}
		addresses = append(addresses, page...)
		if uint64(len(page)) < limit {
			break
		}
	}

	return fanOut(ctx, s.m.pool, "user", addresses, func(ctx context.Context, address common.Address) (model.UserProfile, error) {
		p, err := s.source.GetUserProfile(ctx, address)
		if err != nil {
			return model.UserProfile{}, err
		}
		return *p, nil
	}), nil
}

// RefreshIfDirty 只在被标脏时刷新
func (s *UserStore) RefreshIfDirty(ctx context.Context) (bool, error) {
	if !s.m.isDirty() {
		return false, nil
	}
	return true, s.Refresh(ctx)
}

// Invalidate 标脏
func (s *UserStore) Invalidate() {
	s.m.invalidate()
}

// IsDirty 是否需要刷新
func (s *UserStore) IsDirty() bool {
	return s.m.isDirty()
}

// List 当前用户列表
func (s *UserStore) List(ctx context.Context) ([]model.UserProfile, error) {
	if _, err := s.RefreshIfDirty(ctx); err != nil {
		if _, _, loaded := s.m.list(); !loaded {
			return nil, err
		}
	}
	items, _, _ := s.m.list()
	return items, nil
}

// Page 按 offset/limit 截取当前列表，返回总数
func (s *UserStore) Page(ctx context.Context, offset, limit int) ([]model.UserProfile, int, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	total := len(users)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []model.UserProfile{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return users[offset:end], total, nil
}

// LoadedAt 上次成功刷新的时间
func (s *UserStore) LoadedAt() time.Time {
	_, at, _ := s.m.list()
	return at
}

// OnReplace 每次整体替换后回调
func (s *UserStore) OnReplace(fn func([]model.UserProfile)) {
	s.m.onReplace(fn)
}
