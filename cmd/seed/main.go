package main

import (
	"github.com/wushipay/wushipay/internal/config"
	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/logger"
	"github.com/wushipay/wushipay/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库连接失败: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 默认费率
	if err := models.SeedDefaultRates(); err != nil {
		stdLog.Fatalf("初始化默认费率失败: %v", err)
	}
	stdLog.Printf("默认费率就绪")

	// 全局验证题库示例
	questions := []models.VerificationQuestion{
		{
			QuestionText:  "3 + 5 等于多少？",
			QuestionType:  constants.QuestionTypeFillBlank,
			CorrectAnswer: "8|八",
			Difficulty:    constants.QuestionDifficultyEasy,
			MaxAttempts:   3,
			TimeLimit:     300,
			IsActive:      true,
		},
		{
			QuestionText:  "以下哪个是支付渠道？",
			QuestionType:  constants.QuestionTypeSingleChoice,
			CorrectAnswer: "支付宝",
			Options:       `["微博","支付宝","抖音","快手"]`,
			Difficulty:    constants.QuestionDifficultyEasy,
			MaxAttempts:   3,
			TimeLimit:     300,
			IsActive:      true,
		},
		{
			QuestionText:  "群内允许发送广告消息。这个说法对吗？",
			QuestionType:  constants.QuestionTypeTrueFalse,
			CorrectAnswer: "错|不对|false|no",
			Difficulty:    constants.QuestionDifficultyMedium,
			MaxAttempts:   3,
			TimeLimit:     300,
			IsActive:      true,
		},
	}
	for _, q := range questions {
		var count int64
		if err := models.DB.Model(&models.VerificationQuestion{}).
			Where("question_text = ?", q.QuestionText).
			Count(&count).Error; err != nil {
			stdLog.Printf("查询题目失败: %v", err)
			continue
		}
		if count > 0 {
			stdLog.Printf("题目已存在: %s", q.QuestionText)
			continue
		}
		if err := models.DB.Create(&q).Error; err != nil {
			stdLog.Printf("创建题目失败: %v", err)
		} else {
			stdLog.Printf("创建题目: %s", q.QuestionText)
		}
	}

	// 全局敏感词示例
	words := []models.SensitiveWord{
		{Word: "加微信", Action: constants.SensitiveWordActionWarn, IsActive: true},
		{Word: "刷单", Action: constants.SensitiveWordActionDelete, IsActive: true},
		{Word: "博彩", Action: constants.SensitiveWordActionBan, IsActive: true},
	}
	for _, w := range words {
		var count int64
		if err := models.DB.Model(&models.SensitiveWord{}).
			Where("word = ? AND group_id IS NULL", w.Word).
			Count(&count).Error; err != nil {
			stdLog.Printf("查询敏感词失败: %v", err)
			continue
		}
		if count > 0 {
			stdLog.Printf("敏感词已存在: %s", w.Word)
			continue
		}
		if err := models.DB.Create(&w).Error; err != nil {
			stdLog.Printf("创建敏感词失败: %v", err)
		} else {
			stdLog.Printf("创建敏感词: %s", w.Word)
		}
	}

	stdLog.Printf("种子数据初始化完成")
}
