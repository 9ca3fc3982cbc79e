package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/logger"
	"github.com/wushipay/wushipay/internal/models"
	"github.com/wushipay/wushipay/internal/repository"

	"gorm.io/gorm"
)

const (
	defaultMaxAttempts = 3
	defaultTimeLimit   = 300
)

// VerificationService 入群验证服务。
// 状态机：pending -> passed / rejected，同一 (group,user) 至多一条 pending。
type VerificationService struct {
	repo      repository.VerificationRepository
	groupRepo repository.GroupRepository
}

// NewVerificationService 创建入群验证服务
func NewVerificationService(repo repository.VerificationRepository, groupRepo repository.GroupRepository) *VerificationService {
	return &VerificationService{
		repo:      repo,
		groupRepo: groupRepo,
	}
}

// StartVerificationResult 发起验证的返回结果
type StartVerificationResult struct {
	Record   *models.VerificationRecord   `json:"record"`             // 验证记录
	Question *models.VerificationQuestion `json:"question,omitempty"` // 选中的题目（question 模式）
	Mode     string                       `json:"mode"`               // 实际采用的验证方式
}

// AnswerCheckResult 答案校验结果
type AnswerCheckResult struct {
	Correct           bool                       `json:"correct"`            // 是否答对
	Record            *models.VerificationRecord `json:"record"`             // 更新后的验证记录
	RemainingAttempts int                        `json:"remaining_attempts"` // 剩余尝试次数
	Reason            string                     `json:"reason,omitempty"`   // 失败原因（给调用方展示用）
}

// StartVerification 为新入群成员发起验证。
// question 模式优先选群内题目，群内无题回退全局题库；
// 题库为空时退化为 manual，由管理员人工处理。
func (s *VerificationService) StartVerification(groupID, userID int64) (*StartVerificationResult, error) {
	config, err := s.ensureConfig(groupID)
	if err != nil {
		return nil, err
	}

	mode := config.VerificationMode
	var question *models.VerificationQuestion
	if mode == constants.VerificationModeQuestion {
		question, err = s.pickQuestion(groupID)
		if err != nil {
			return nil, err
		}
		if question == nil {
			logger.Warnw("verification_question_pool_empty", "group_id", groupID)
			mode = constants.VerificationModeManual
		}
	}

	record := &models.VerificationRecord{
		GroupID:          groupID,
		UserID:           userID,
		VerificationType: mode,
		CreatedAt:        time.Now(),
	}
	if question != nil {
		questionID := question.ID
		record.QuestionID = &questionID
	}
	if err := s.repo.CreatePendingRecord(record); err != nil {
		return nil, err
	}

	logger.Infow("verification_started",
		"group_id", groupID, "user_id", userID, "mode", mode,
	)
	return &StartVerificationResult{
		Record:   record,
		Question: question,
		Mode:     mode,
	}, nil
}

// CheckUserAnswer 校验用户提交的答案。
// 超时与超次在提交时判定并落为 rejected；正确答案竖线分隔，不区分大小写，
// 选择题还接受 1 起始的选项编号。
// 整个读-判-写在同一事务内并对 pending 记录加行锁，并发提交不会重复消耗次数；
// 哨兵错误在事务提交后返回，避免把落库动作一并回滚。
func (s *VerificationService) CheckUserAnswer(groupID, userID int64, answer string) (*AnswerCheckResult, error) {
	var result *AnswerCheckResult
	var checkErr error

	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.GetPendingRecordForUpdate(groupID, userID)
		if err != nil {
			return err
		}
		if record == nil {
			checkErr = ErrNoPendingVerification
			return nil
		}
		if record.QuestionID == nil {
			checkErr = ErrQuestionMissing
			return nil
		}

		question, err := repo.GetQuestion(*record.QuestionID)
		if err != nil {
			return err
		}
		if question == nil {
			checkErr = ErrQuestionMissing
			return nil
		}

		maxAttempts := question.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = defaultMaxAttempts
		}
		timeLimit := question.TimeLimit
		if timeLimit <= 0 {
			timeLimit = defaultTimeLimit
		}

		now := time.Now()

		if record.AttemptCount >= maxAttempts {
			if err := s.finishRecord(repo, record, answer, false, now); err != nil {
				return err
			}
			result = &AnswerCheckResult{Record: record, Reason: fmt.Sprintf("已超过最大尝试次数（%d次）", maxAttempts)}
			checkErr = ErrMaxAttemptsExceeded
			return nil
		}

		if now.Sub(record.CreatedAt) > time.Duration(timeLimit)*time.Second {
			if err := s.finishRecord(repo, record, answer, false, now); err != nil {
				return err
			}
			result = &AnswerCheckResult{Record: record, Reason: "回答超时"}
			checkErr = ErrVerificationTimeout
			return nil
		}

		correct := matchAnswer(question, answer)

		if correct {
			isCorrect := true
			record.UserAnswer = answer
			record.IsCorrect = &isCorrect
			record.Result = constants.VerificationResultPassed
			record.CompletedAt = &now
			if err := repo.UpdateRecord(record.ID, map[string]interface{}{
				"user_answer":  answer,
				"is_correct":   true,
				"result":       constants.VerificationResultPassed,
				"completed_at": now,
			}); err != nil {
				return err
			}
			logger.Infow("verification_passed", "group_id", groupID, "user_id", userID)
			result = &AnswerCheckResult{Correct: true, Record: record}
			return nil
		}

		record.AttemptCount++
		remaining := maxAttempts - record.AttemptCount
		isCorrect := false
		record.UserAnswer = answer
		record.IsCorrect = &isCorrect

		if remaining > 0 {
			if err := repo.UpdateRecord(record.ID, map[string]interface{}{
				"user_answer":   answer,
				"is_correct":    false,
				"attempt_count": record.AttemptCount,
			}); err != nil {
				return err
			}
			result = &AnswerCheckResult{
				Record:            record,
				RemainingAttempts: remaining,
				Reason:            fmt.Sprintf("答案不正确，请重试（剩余 %d 次机会）", remaining),
			}
			return nil
		}

		record.Result = constants.VerificationResultRejected
		record.CompletedAt = &now
		if err := repo.UpdateRecord(record.ID, map[string]interface{}{
			"user_answer":   answer,
			"is_correct":    false,
			"attempt_count": record.AttemptCount,
			"result":        constants.VerificationResultRejected,
			"completed_at":  now,
		}); err != nil {
			return err
		}
		logger.Infow("verification_rejected",
			"group_id", groupID, "user_id", userID, "attempts", record.AttemptCount,
		)
		result = &AnswerCheckResult{Record: record, Reason: "答案不正确，已达到最大尝试次数"}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if checkErr != nil {
		return result, checkErr
	}
	return result, nil
}

// CompleteVerification 落定验证结果并同步群成员状态。
// 平台侧的踢人/解禁动作由调用方执行，这里只记账。
func (s *VerificationService) CompleteVerification(groupID, userID int64, passed bool) error {
	now := time.Now()
	record, err := s.repo.GetPendingRecord(groupID, userID)
	if err != nil {
		return err
	}
	if record != nil {
		result := constants.VerificationResultRejected
		if passed {
			result = constants.VerificationResultPassed
		}
		if err := s.repo.UpdateRecord(record.ID, map[string]interface{}{
			"result":       result,
			"completed_at": now,
		}); err != nil {
			return err
		}
	}

	memberStatus := constants.GroupMemberStatusRejected
	if passed {
		memberStatus = constants.GroupMemberStatusVerified
	}
	return s.groupRepo.SetMemberStatus(groupID, userID, memberStatus, now)
}

// SweepExpiredRecords 将超时未作答的 pending 记录批量转为 rejected
func (s *VerificationService) SweepExpiredRecords(now time.Time) (int64, error) {
	swept, err := s.repo.SweepExpired(now)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		logger.Infow("verification_expired_swept", "count", swept)
	}
	return swept, nil
}

// CreateQuestion 新增验证题目
func (s *VerificationService) CreateQuestion(question *models.VerificationQuestion) error {
	if question == nil || strings.TrimSpace(question.QuestionText) == "" ||
		strings.TrimSpace(question.CorrectAnswer) == "" {
		return ErrQuestionMissing
	}
	if !constants.IsValidQuestionType(question.QuestionType) {
		return ErrQuestionMissing
	}
	if question.MaxAttempts <= 0 {
		question.MaxAttempts = defaultMaxAttempts
	}
	if question.TimeLimit <= 0 {
		question.TimeLimit = defaultTimeLimit
	}
	question.IsActive = true
	return s.repo.CreateQuestion(question)
}

// ListQuestions 查询题库列表
func (s *VerificationService) ListQuestions(filter repository.QuestionListFilter) ([]models.VerificationQuestion, error) {
	return s.repo.ListQuestions(filter)
}

// DeactivateQuestion 下架指定题目
func (s *VerificationService) DeactivateQuestion(id uint) error {
	return s.repo.DeactivateQuestion(id)
}

// GetVerificationStats 统计最近 N 天的验证结果分布
func (s *VerificationService) GetVerificationStats(groupID int64, days int) (*repository.VerificationStats, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)
	return s.repo.GetStats(groupID, since)
}

// GetConfig 获取群验证配置（不存在时返回 nil）
func (s *VerificationService) GetConfig(groupID int64) (*models.VerificationConfig, error) {
	return s.repo.GetConfig(groupID)
}

// UpdateConfig 更新群验证配置
func (s *VerificationService) UpdateConfig(config *models.VerificationConfig) error {
	if config == nil || !constants.IsValidVerificationMode(config.VerificationMode) {
		return ErrNotFound
	}
	return s.repo.UpsertConfig(config)
}

// ensureConfig 读取群验证配置，缺省时创建默认配置
func (s *VerificationService) ensureConfig(groupID int64) (*models.VerificationConfig, error) {
	config, err := s.repo.GetConfig(groupID)
	if err != nil {
		return nil, err
	}
	if config != nil {
		return config, nil
	}
	config = &models.VerificationConfig{
		GroupID:              groupID,
		VerificationMode:     constants.VerificationModeQuestion,
		AutoApproveThreshold: 80,
		QuestionThresholdMin: 60,
		QuestionThresholdMax: 80,
	}
	if err := s.repo.UpsertConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// pickQuestion 优先群内题目，无则回退全局题库
func (s *VerificationService) pickQuestion(groupID int64) (*models.VerificationQuestion, error) {
	question, err := s.repo.PickRandomQuestion(repository.QuestionListFilter{
		GroupID:    &groupID,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}
	if question != nil {
		return question, nil
	}
	return s.repo.PickRandomQuestion(repository.QuestionListFilter{
		ActiveOnly: true,
	})
}

func (s *VerificationService) finishRecord(repo repository.VerificationRepository, record *models.VerificationRecord, answer string, correct bool, now time.Time) error {
	record.Result = constants.VerificationResultRejected
	record.CompletedAt = &now
	return repo.UpdateRecord(record.ID, map[string]interface{}{
		"user_answer":  answer,
		"is_correct":   correct,
		"result":       constants.VerificationResultRejected,
		"completed_at": now,
	})
}

// matchAnswer 答案比对：两侧去空白并小写化后精确匹配；
// 选择题额外接受选项编号（1 起始）。
func matchAnswer(question *models.VerificationQuestion, answer string) bool {
	normalized := normalizeAnswer(answer)
	if normalized == "" {
		return false
	}

	accepted := strings.Split(question.CorrectAnswer, "|")
	for _, candidate := range accepted {
		if normalized == normalizeAnswer(candidate) {
			return true
		}
	}

	if question.QuestionType == constants.QuestionTypeSingleChoice {
		options := question.OptionList()
		if index, err := strconv.Atoi(normalized); err == nil && index >= 1 && index <= len(options) {
			chosen := normalizeAnswer(options[index-1])
			for _, candidate := range accepted {
				if chosen == normalizeAnswer(candidate) {
					return true
				}
			}
		}
	}
	return false
}

func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
