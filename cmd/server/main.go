package main

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/wushipay/wushipay/internal/app"
	"github.com/wushipay/wushipay/internal/config"
	"github.com/wushipay/wushipay/internal/logger"
	"github.com/wushipay/wushipay/internal/models"
)

func main() {
	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 初始化默认费率
	if err := models.SeedDefaultRates(); err != nil {
		stdLog.Printf("警告: 初始化默认费率失败: %v", err)
	}

	// 初始化初始管理员（WSP_ADMIN_IDS，逗号分隔）
	if adminIDs := parseAdminIDs(os.Getenv("WSP_ADMIN_IDS")); len(adminIDs) > 0 {
		if err := models.InitDefaultAdmins(adminIDs); err != nil {
			stdLog.Printf("警告: 初始化管理员失败: %v", err)
		}
	}

	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), worker")
	flag.Parse()

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
