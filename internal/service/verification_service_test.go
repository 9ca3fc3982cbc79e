package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/models"
	"github.com/wushipay/wushipay/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupVerificationServiceTest(t *testing.T) (*VerificationService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:verification_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Group{}, &models.GroupMember{},
		&models.VerificationQuestion{}, &models.VerificationRecord{}, &models.VerificationConfig{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewVerificationService(
		repository.NewVerificationRepository(db),
		repository.NewGroupRepository(db),
	), db
}

func seedFillBlankQuestion(t *testing.T, db *gorm.DB) *models.VerificationQuestion {
	t.Helper()
	question := &models.VerificationQuestion{
		QuestionText:  "3 + 5 等于多少？",
		QuestionType:  constants.QuestionTypeFillBlank,
		CorrectAnswer: "8|八",
		MaxAttempts:   3,
		TimeLimit:     300,
		IsActive:      true,
	}
	if err := db.Create(question).Error; err != nil {
		t.Fatalf("seed question failed: %v", err)
	}
	return question
}

func TestStartVerificationCreatesPending(t *testing.T) {
	svc, db := setupVerificationServiceTest(t)
	seedFillBlankQuestion(t, db)

	result, err := svc.StartVerification(100, 200)
	if err != nil {
		t.Fatalf("StartVerification error: %v", err)
	}
	if result.Mode != constants.VerificationModeQuestion {
		t.Fatalf("expected question mode, got %s", result.Mode)
	}
	if result.Question == nil {
		t.Fatalf("expected question selected")
	}
	if result.Record.Result != constants.VerificationResultPending {
		t.Fatalf("expected pending record, got %s", result.Record.Result)
	}
}

func TestStartVerificationReplacesPriorPending(t *testing.T) {
	svc, db := setupVerificationServiceTest(t)
	seedFillBlankQuestion(t, db)

	if _, err := svc.StartVerification(100, 200); err != nil {
		t.Fatalf("first StartVerification error: %v", err)
	}
	if _, err := svc.StartVerification(100, 200); err != nil {
		t.Fatalf("second StartVerification error: %v", err)
	}

	var count int64
	if err := db.Model(&models.VerificationRecord{}).
		Where("group_id = ? AND user_id = ? AND result = ?", 100, 200, constants.VerificationResultPending).
		Count(&count).Error; err != nil {
		t.Fatalf("count pending failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 pending record, got %d", count)
	}
}

func TestStartVerificationFallbackToManual(t *testing.T) {
	svc, _ := setupVerificationServiceTest(t)

	// 题库为空时退化为人工验证
	result, err := svc.StartVerification(100, 200)
	if err != nil {
		t.Fatalf("StartVerification error: %v", err)
	}
	if result.Mode != constants.VerificationModeManual {
		t.Fatalf("expected manual fallback, got %s", result.Mode)
	}
}

func TestCheckUserAnswerCorrect(t *testing.T) {
	svc, db := setupVerificationServiceTest(t)
	seedFillBlankQuestion(t, db)

	if _, err := svc.StartVerification(100, 200); err != nil {
		t.Fatalf("StartVerification error: %v", err)
	}

	// 竖线分隔的备选答案，不区分大小写、忽略两侧空白
	result, err := svc.CheckUserAnswer(100, 200, "  八 ")
	if err != nil {
		t.Fatalf("CheckUserAnswer error: %v", err)
	}
	if !result.Correct {
		t.Fatalf("expected correct answer, got %+v", result)
	}
	if result.Record.Result != constants.VerificationResultPassed {
		t.Fatalf("expected passed, got %s", result.Record.Result)
	}
}

func TestCheckUserAnswerExhaustsAttempts(t *testing.T) {
	svc, db := setupVerificationServiceTest(t)
	seedFillBlankQuestion(t, db)

	if _, err := svc.StartVerification(100, 200); err != nil {
		t.Fatalf("StartVerification error: %v", err)
	}

	for i := 0; i < 2; i++ {
		result, err := svc.CheckUserAnswer(100, 200, "7")
		if err != nil {
			t.Fatalf("attempt %d error: %v", i+1, err)
		}
		if result.Correct {
			t.Fatalf("attempt %d unexpectedly correct", i+1)
		}
		if result.RemainingAttempts != 2-i {
			t.Fatalf("attempt %d expected %d remaining, got %d", i+1, 2-i, result.RemainingAttempts)
		}
	}

	result, err := svc.CheckUserAnswer(100, 200, "7")
	if err != nil {
		t.Fatalf("final attempt error: %v", err)
	}
	if result.Record.Result != constants.VerificationResultRejected {
		t.Fatalf("expected rejected after 3 attempts, got %s", result.Record.Result)
	}

	// 记录已落定，继续提交报无进行中验证
	if _, err := svc.CheckUserAnswer(100, 200, "8"); !errors.Is(err, ErrNoPendingVerification) {
		t.Fatalf("expected ErrNoPendingVerification, got %v", err)
	}
}

func TestCheckUserAnswerConsumesPendingOnce(t *testing.T) {
	svc, db := setupVerificationServiceTest(t)
	seedFillBlankQuestion(t, db)

	start, err := svc.StartVerification(100, 200)
	if err != nil {
		t.Fatalf("StartVerification error: %v", err)
	}

	// 每次提交在事务内锁定 pending 记录，一次错误只消耗一次机会
	if _, err := svc.CheckUserAnswer(100, 200, "7"); err != nil {
		t.Fatalf("wrong answer error: %v", err)
	}
	var record models.VerificationRecord
	if err := db.First(&record, start.Record.ID).Error; err != nil {
		t.Fatalf("load record failed: %v", err)
	}
	if record.AttemptCount != 1 {
		t.Fatalf("expected attempt_count 1 committed, got %d", record.AttemptCount)
	}

	// 通过后记录被消耗，后续提交不能再次命中同一条 pending
	result, err := svc.CheckUserAnswer(100, 200, "8")
	if err != nil || !result.Correct {
		t.Fatalf("expected pass, got %+v / %v", result, err)
	}
	if _, err := svc.CheckUserAnswer(100, 200, "8"); !errors.Is(err, ErrNoPendingVerification) {
		t.Fatalf("expected ErrNoPendingVerification after pass, got %v", err)
	}
}

func TestCheckUserAnswerCorrectOnLastAttempt(t *testing.T) {
	svc, db := setupVerificationServiceTest(t)
	seedFillBlankQuestion(t, db)

	if _, err := svc.StartVerification(100, 200); err != nil {
		t.Fatalf("StartVerification error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.CheckUserAnswer(100, 200, "wrong"); err != nil {
			t.Fatalf("attempt %d error: %v", i+1, err)
		}
	}
	result, err := svc.CheckUserAnswer(100, 200, "8")
	if err != nil {
		t.Fatalf("last attempt error: %v", err)
	}
	if !result.Correct || result.Record.Result != constants.VerificationResultPassed {
		t.Fatalf("expected pass on last attempt, got %+v", result)
	}
}

func TestCheckUserAnswerSingleChoiceIndex(t *testing.T) {
	svc, db := setupVerificationServiceTest(t)
	question := &models.VerificationQuestion{
		QuestionText:  "以下哪个是支付渠道？",
		QuestionType:  constants.QuestionTypeSingleChoice,
		CorrectAnswer: "支付宝",
		Options:       `["微博","支付宝","抖音"]`,
		MaxAttempts:   3,
		TimeLimit:     300,
		IsActive:      true,
	}
	if err := db.Create(question).Error; err != nil {
		t.Fatalf("seed question failed: %v", err)
	}

	if _, err := svc.StartVerification(100, 200); err != nil {
		t.Fatalf("StartVerification error: %v", err)
	}

	// 选择题接受 1 起始的选项编号
	result, err := svc.CheckUserAnswer(100, 200, "2")
	if err != nil {
		t.Fatalf("CheckUserAnswer error: %v", err)
	}
	if !result.Correct {
		t.Fatalf("expected option index 2 to match, got %+v", result)
	}
}

func TestCheckUserAnswerTimeout(t *testing.T) {
	svc, db := setupVerificationServiceTest(t)
	seedFillBlankQuestion(t, db)

	start, err := svc.StartVerification(100, 200)
	if err != nil {
		t.Fatalf("StartVerification error: %v", err)
	}
	stale := time.Now().Add(-10 * time.Minute)
	if err := db.Model(&models.VerificationRecord{}).
		Where("id = ?", start.Record.ID).
		Update("created_at", stale).Error; err != nil {
		t.Fatalf("backdate record failed: %v", err)
	}

	if _, err := svc.CheckUserAnswer(100, 200, "8"); !errors.Is(err, ErrVerificationTimeout) {
		t.Fatalf("expected ErrVerificationTimeout, got %v", err)
	}

	var record models.VerificationRecord
	if err := db.First(&record, start.Record.ID).Error; err != nil {
		t.Fatalf("load record failed: %v", err)
	}
	if record.Result != constants.VerificationResultRejected {
		t.Fatalf("expected rejected after timeout, got %s", record.Result)
	}
}

func TestSweepExpiredRecords(t *testing.T) {
	svc, db := setupVerificationServiceTest(t)
	seedFillBlankQuestion(t, db)

	start, err := svc.StartVerification(100, 200)
	if err != nil {
		t.Fatalf("StartVerification error: %v", err)
	}
	if _, err := svc.StartVerification(100, 201); err != nil {
		t.Fatalf("StartVerification error: %v", err)
	}
	stale := time.Now().Add(-10 * time.Minute)
	if err := db.Model(&models.VerificationRecord{}).
		Where("id = ?", start.Record.ID).
		Update("created_at", stale).Error; err != nil {
		t.Fatalf("backdate record failed: %v", err)
	}

	swept, err := svc.SweepExpiredRecords(time.Now())
	if err != nil {
		t.Fatalf("SweepExpiredRecords error: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 swept record, got %d", swept)
	}

	var record models.VerificationRecord
	if err := db.First(&record, start.Record.ID).Error; err != nil {
		t.Fatalf("load record failed: %v", err)
	}
	if record.Result != constants.VerificationResultRejected {
		t.Fatalf("expected rejected, got %s", record.Result)
	}

	// 未超时记录不受影响
	pending, err := repository.NewVerificationRepository(db).GetPendingRecord(100, 201)
	if err != nil || pending == nil {
		t.Fatalf("expected second record still pending, got %v / %v", pending, err)
	}
}

func TestCompleteVerificationUpdatesMember(t *testing.T) {
	svc, db := setupVerificationServiceTest(t)
	seedFillBlankQuestion(t, db)

	groupRepo := repository.NewGroupRepository(db)
	if _, err := groupRepo.AddPendingMember(100, 200, time.Now()); err != nil {
		t.Fatalf("add member failed: %v", err)
	}
	if _, err := svc.StartVerification(100, 200); err != nil {
		t.Fatalf("StartVerification error: %v", err)
	}

	if err := svc.CompleteVerification(100, 200, true); err != nil {
		t.Fatalf("CompleteVerification error: %v", err)
	}

	member, err := groupRepo.GetMember(100, 200)
	if err != nil {
		t.Fatalf("get member failed: %v", err)
	}
	if member.Status != constants.GroupMemberStatusVerified {
		t.Fatalf("expected verified member, got %s", member.Status)
	}
	if member.VerifiedAt == nil {
		t.Fatalf("expected verified_at set")
	}
}
