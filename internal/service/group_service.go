package service

import (
	"strings"
	"time"

	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/logger"
	"github.com/wushipay/wushipay/internal/models"
	"github.com/wushipay/wushipay/internal/repository"
)

// GroupService 群组服务。
// 入群登记与验证引擎配合：开启验证的群，新成员登记后由验证引擎发题。
type GroupService struct {
	repo         repository.GroupRepository
	verification *VerificationService
}

// NewGroupService 创建群组服务
func NewGroupService(repo repository.GroupRepository, verification *VerificationService) *GroupService {
	return &GroupService{
		repo:         repo,
		verification: verification,
	}
}

// UpsertGroup 登记或更新群组
func (s *GroupService) UpsertGroup(group *models.Group) error {
	if group == nil || group.GroupID == 0 {
		return ErrNotFound
	}
	return s.repo.Upsert(group)
}

// GetGroup 按平台群组ID查询群组
func (s *GroupService) GetGroup(groupID int64) (*models.Group, error) {
	group, err := s.repo.GetByGroupID(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrNotFound
	}
	return group, nil
}

// HandleMemberJoin 处理新成员入群。
// 登记成员记录；群开启验证时发起验证流程，否则直接标记为已验证。
func (s *GroupService) HandleMemberJoin(groupID, userID int64) (*StartVerificationResult, error) {
	now := time.Now()
	group, err := s.repo.GetByGroupID(groupID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.AddPendingMember(groupID, userID, now); err != nil {
		return nil, err
	}

	if group == nil || !group.VerificationEnabled {
		if err := s.repo.SetMemberStatus(groupID, userID, constants.GroupMemberStatusVerified, now); err != nil {
			return nil, err
		}
		return nil, nil
	}

	result, err := s.verification.StartVerification(groupID, userID)
	if err != nil {
		return nil, err
	}
	logger.Infow("member_join_pending_verification", "group_id", groupID, "user_id", userID)
	return result, nil
}

// ListPendingMembers 列出待验证成员
func (s *GroupService) ListPendingMembers(groupID int64) ([]models.GroupMember, error) {
	return s.repo.ListMembers(groupID, constants.GroupMemberStatusPending)
}

// SensitiveWordHit 敏感词命中结果
type SensitiveWordHit struct {
	Word   string `json:"word"`   // 命中的词
	Action string `json:"action"` // 处理动作
}

// CheckMessage 检查消息是否命中敏感词。
// 不区分大小写子串匹配，多词命中时按 ban > delete > warn 取最重动作。
func (s *GroupService) CheckMessage(groupID int64, text string) (*SensitiveWordHit, error) {
	text = strings.ToLower(text)
	if text == "" {
		return nil, nil
	}
	words, err := s.repo.ListActiveWords(groupID)
	if err != nil {
		return nil, err
	}

	var hit *SensitiveWordHit
	for _, word := range words {
		if !strings.Contains(text, strings.ToLower(word.Word)) {
			continue
		}
		if hit == nil || actionSeverity(word.Action) > actionSeverity(hit.Action) {
			hit = &SensitiveWordHit{Word: word.Word, Action: word.Action}
		}
	}
	return hit, nil
}

// AddSensitiveWord 新增敏感词
func (s *GroupService) AddSensitiveWord(word *models.SensitiveWord) error {
	if word == nil || strings.TrimSpace(word.Word) == "" {
		return ErrNotFound
	}
	if word.Action == "" {
		word.Action = constants.SensitiveWordActionWarn
	}
	word.IsActive = true
	return s.repo.AddWord(word)
}

// RemoveSensitiveWord 停用敏感词
func (s *GroupService) RemoveSensitiveWord(id uint) error {
	return s.repo.RemoveWord(id)
}

func actionSeverity(action string) int {
	switch action {
	case constants.SensitiveWordActionBan:
		return 3
	case constants.SensitiveWordActionDelete:
		return 2
	case constants.SensitiveWordActionWarn:
		return 1
	}
	return 0
}
