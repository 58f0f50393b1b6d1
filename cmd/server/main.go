package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/fundchain/internal/chain"
	"github.com/blues/fundchain/internal/config"
	"github.com/blues/fundchain/internal/contract"
	"github.com/blues/fundchain/internal/event"
	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/logic"
	"github.com/blues/fundchain/internal/model"
	"github.com/blues/fundchain/internal/monitor"
	"github.com/blues/fundchain/internal/repository"
	"github.com/blues/fundchain/internal/router"
	"github.com/blues/fundchain/internal/session"
	"github.com/blues/fundchain/internal/store"
	"github.com/blues/fundchain/internal/task"
	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
)

var _ logic.ChainGateway = (*contract.ContractManager)(nil)

const (
	shutdownTimeout = 10 * time.Second
	snapshotTimeout = 30 * time.Second
)

func main() {
	// 加载配置
	cfg := config.Load()
	if err := logger.Setup(cfg.Log); err != nil {
		logger.Fatal("Failed to setup logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// 会话存储
	rdb, err := session.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()
	sessions := session.NewManager(session.NewRedisStore(rdb), cfg.Session.TTL, cfg.Session.NonceTTL)

	// 初始化链客户端与合约
	chainManager, err := chain.NewManager(ctx, cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize chain manager: %v", err)
	}
	defer chainManager.Close()

	contracts, err := contract.NewContractManager(chainManager)
	if err != nil {
		logger.Fatal("Failed to initialize contract manager: %v", err)
	}

	pool, err := ants.NewPool(cfg.Monitor.PoolSize)
	if err != nil {
		logger.Fatal("Failed to create worker pool: %v", err)
	}
	defer pool.Release()

	// 镜像与业务逻辑
	campaignStore := store.NewCampaignStore(contracts, pool)
	userStore := store.NewUserStore(contracts, pool)
	eventRepo := repository.NewEventRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	campaignLogic := logic.NewCampaignLogic(contracts, campaignStore, cfg.Chain.Admin())
	userLogic := logic.NewUserLogic(contracts, userStore, sessions)
	authLogic := logic.NewAuthLogic(contracts, sessions, sessions, logic.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))
	eventLogic := logic.NewEventLogic(eventRepo)
	statsLogic := logic.NewStatsLogic(campaignStore, snapshotRepo)

	campaignStore.OnReplace(func(campaigns []model.Campaign) {
		go func() {
			snapCtx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
			defer cancel()
			if err := statsLogic.SnapshotFrom(snapCtx, campaigns); err != nil {
				logger.Warn("Failed to snapshot campaigns after refresh: %v", err)
			}
		}()
	})

	if err := campaignStore.Refresh(ctx); err != nil {
		logger.Warn("Initial campaign load failed: %v", err)
	}
	if err := userStore.Refresh(ctx); err != nil {
		logger.Warn("Initial user load failed: %v", err)
	}

	// 启动事件监控
	processors := event.NewProcessorManager(
		event.NewCampaignProcessor(campaignStore),
		event.NewUserProcessor(userStore, sessions),
	)
	eventMonitor := monitor.NewEventMonitor(cfg.Monitor, chainManager, chainManager.GetClient(),
		campaignStore, eventRepo, processors, campaignStore, userStore)
	if err := eventMonitor.Start(ctx); err != nil {
		logger.Error("Failed to start event monitor, relying on periodic refresh: %v", err)
	} else {
		defer eventMonitor.Stop()
	}

	// 启动定时任务
	interval := time.Duration(cfg.Task.Interval) * time.Second
	taskManager, err := task.NewTaskManager(
		task.NewRefreshJob("campaign_refresh", campaignStore, interval),
		task.NewRefreshJob("user_refresh", userStore, interval),
		task.NewSnapshotJob(statsLogic, time.Duration(cfg.Task.SnapshotInterval)*time.Second),
	)
	if err != nil {
		logger.Fatal("Failed to create task manager: %v", err)
	}
	taskManager.Start()
	defer taskManager.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(router.Services{
		Campaigns: campaignLogic,
		Users:     userLogic,
		Auth:      authLogic,
		Events:    eventLogic,
		Stats:     statsLogic,
		Operator:  contracts,
		Health:    chainManager,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server: %v", err)
	}
}
