package service

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/wushipay/wushipay/internal/config"
	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/logger"
	"github.com/wushipay/wushipay/internal/models"
	"github.com/wushipay/wushipay/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 推荐码前缀
const referralCodePrefix = "WSP"

// lotteryPrize 抽奖奖项定义
type lotteryPrize struct {
	Level       int
	Amount      decimal.Decimal
	Probability float64
}

// 奖项表：累计概率游走选奖，未命中兜底到末档
var lotteryPrizes = []lotteryPrize{
	{Level: 1, Amount: decimal.NewFromInt(500), Probability: 0.10},
	{Level: 2, Amount: decimal.NewFromInt(100), Probability: 0.20},
	{Level: 3, Amount: decimal.NewFromInt(50), Probability: 0.30},
	{Level: 4, Amount: decimal.NewFromInt(10), Probability: 0.40},
}

// ReferralService 推荐奖励服务。
// 奖励流水只增不改，累计字段用原子自增维护。
type ReferralService struct {
	repo repository.ReferralRepository
	cfg  config.ReferralConfig
	roll func() float64 // 抽奖随机源
}

// NewReferralService 创建推荐奖励服务
func NewReferralService(repo repository.ReferralRepository, cfg config.ReferralConfig) *ReferralService {
	return &ReferralService{
		repo: repo,
		cfg:  cfg,
		roll: rand.Float64,
	}
}

// GetOrCreateReferralCode 获取用户推荐码，不存在时创建。
// 推荐码格式固定为 WSP+用户ID，并发创建冲突时回读已有记录。
func (s *ReferralService) GetOrCreateReferralCode(userID int64) (*models.ReferralCode, error) {
	code, err := s.repo.GetCodeByUserID(userID)
	if err != nil {
		return nil, err
	}
	if code != nil {
		return code, nil
	}

	code = &models.ReferralCode{
		UserID:       userID,
		ReferralCode: referralCodePrefix + strconv.FormatInt(userID, 10),
	}
	if err := s.repo.CreateCode(code); err != nil {
		if isUniqueViolation(err) {
			return s.repo.GetCodeByUserID(userID)
		}
		return nil, err
	}
	return code, nil
}

// CreateReferral 建立推荐关系。
// 拒绝自荐；每个被邀请人只能被邀请一次；建立后邀请人总邀请数 +1。
func (s *ReferralService) CreateReferral(referralCode string, referredID int64) (*models.Referral, error) {
	codeRecord, err := s.repo.GetCodeByCode(referralCode)
	if err != nil {
		return nil, err
	}
	if codeRecord == nil {
		return nil, ErrReferralCodeInvalid
	}
	if codeRecord.UserID == referredID {
		return nil, ErrSelfReferral
	}

	var referral *models.Referral
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.GetReferralByReferredID(referredID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyReferred
		}

		referral = &models.Referral{
			ReferrerID:   codeRecord.UserID,
			ReferredID:   referredID,
			ReferralCode: codeRecord.ReferralCode,
			Status:       constants.ReferralStatusPending,
		}
		if err := repo.CreateReferral(referral); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyReferred
			}
			return err
		}
		return repo.AddTotalInvites(codeRecord.UserID, time.Now())
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("referral_created",
		"referrer_id", codeRecord.UserID, "referred_id", referredID, "code", codeRecord.ReferralCode,
	)
	return referral, nil
}

// HandleFirstPaidTransaction 在独立事务中处理被邀请人的首笔已支付交易
func (s *ReferralService) HandleFirstPaidTransaction(referredID int64, amount decimal.Decimal, now time.Time) error {
	return s.repo.Transaction(func(tx *gorm.DB) error {
		return s.HandleFirstPaidTransactionTx(tx, referredID, amount, now)
	})
}

// HandleFirstPaidTransactionTx 处理被邀请人的首笔已支付交易（挂入调用方事务）。
// 发放邀请固定奖励与按交易额封顶的分红，累计成功邀请数，
// 每满 N 次成功邀请送一次抽奖机会。重复调用幂等（状态已流转则直接返回）。
func (s *ReferralService) HandleFirstPaidTransactionTx(tx *gorm.DB, referredID int64, amount decimal.Decimal, now time.Time) error {
	repo := s.repo.WithTx(tx)

	referral, err := repo.GetReferralByReferredIDForUpdate(referredID)
	if err != nil {
		return err
	}
	if referral == nil || referral.Status != constants.ReferralStatusPending {
		return nil
	}

	code, err := repo.GetCodeByUserIDForUpdate(referral.ReferrerID)
	if err != nil {
		return err
	}
	if code == nil {
		// 推荐关系存在但推荐码丢失，只流转状态不发奖
		logger.Warnw("referral_code_missing_on_reward", "referrer_id", referral.ReferrerID)
		referral.Status = constants.ReferralStatusFirstTransaction
		referral.FirstTransactionAt = &now
		return repo.UpdateReferral(referral)
	}

	inviteReward := decimal.NewFromFloat(s.cfg.InviteReward).Round(2)
	dividend := s.calcDividend(amount)
	totalReward := inviteReward.Add(dividend)

	referral.Status = constants.ReferralStatusRewarded
	referral.RewardAmount = models.NewMoneyFromDecimal(totalReward)
	referral.FirstTransactionAt = &now
	if err := repo.UpdateReferral(referral); err != nil {
		return err
	}

	referralID := referral.ID
	if err := repo.CreateReward(&models.ReferralReward{
		UserID:      referral.ReferrerID,
		RewardType:  constants.RewardTypeInvite,
		Amount:      models.NewMoneyFromDecimal(inviteReward),
		ReferralID:  &referralID,
		Description: fmt.Sprintf("成功邀请用户 %d", referredID),
		Status:      constants.RewardStatusPaid,
	}); err != nil {
		return err
	}
	if dividend.IsPositive() {
		if err := repo.CreateReward(&models.ReferralReward{
			UserID:      referral.ReferrerID,
			RewardType:  constants.RewardTypeDividend,
			Amount:      models.NewMoneyFromDecimal(dividend),
			ReferralID:  &referralID,
			Description: fmt.Sprintf("用户 %d 首笔交易分红", referredID),
			Status:      constants.RewardStatusPaid,
		}); err != nil {
			return err
		}
	}

	if err := repo.AddSuccessfulInvite(referral.ReferrerID, totalReward, now); err != nil {
		return err
	}

	newSuccessful := code.SuccessfulInvites + 1
	if s.lotteryEveryNth() > 0 && newSuccessful%s.lotteryEveryNth() == 0 {
		if err := repo.AddLotteryEntry(referral.ReferrerID); err != nil {
			return err
		}
		logger.Infow("lottery_entry_granted",
			"referrer_id", referral.ReferrerID, "successful_invites", newSuccessful,
		)
	}

	logger.Infow("referral_rewarded",
		"referrer_id", referral.ReferrerID, "referred_id", referredID,
		"invite_reward", inviteReward.StringFixed(2), "dividend", dividend.StringFixed(2),
	)
	return nil
}

// GrantNewUserBonusTx 发放新用户首笔交易红包（挂入调用方事务）
func (s *ReferralService) GrantNewUserBonusTx(tx *gorm.DB, userID int64, now time.Time) error {
	bonus := decimal.NewFromFloat(s.cfg.NewUserBonus).Round(2)
	if !bonus.IsPositive() {
		return nil
	}
	return s.repo.WithTx(tx).CreateReward(&models.ReferralReward{
		UserID:      userID,
		RewardType:  constants.RewardTypeNewUserBonus,
		Amount:      models.NewMoneyFromDecimal(bonus),
		Description: "新用户首笔交易红包",
		Status:      constants.RewardStatusPaid,
	})
}

// DrawLottery 消耗一次抽奖机会并开奖。
// 扣减带余额条件，余额不足返回 ErrNoLotteryEntries；中奖金额计入累计奖励。
func (s *ReferralService) DrawLottery(userID int64) (*models.LotteryEntry, error) {
	var entry *models.LotteryEntry
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		consumed, err := repo.ConsumeLotteryEntry(userID)
		if err != nil {
			return err
		}
		if !consumed {
			return ErrNoLotteryEntries
		}

		prize := s.pickPrize()
		entry = &models.LotteryEntry{
			UserID:      userID,
			PrizeLevel:  prize.Level,
			PrizeAmount: models.NewMoneyFromDecimal(prize.Amount),
			Status:      constants.LotteryEntryStatusPaid,
		}
		if err := repo.CreateLotteryEntryRecord(entry); err != nil {
			return err
		}
		if err := repo.CreateReward(&models.ReferralReward{
			UserID:      userID,
			RewardType:  constants.RewardTypeLottery,
			Amount:      models.NewMoneyFromDecimal(prize.Amount),
			Description: fmt.Sprintf("邀请抽奖 %d 等奖", prize.Level),
			Status:      constants.RewardStatusPaid,
		}); err != nil {
			return err
		}

		code, err := repo.GetCodeByUserIDForUpdate(userID)
		if err != nil {
			return err
		}
		if code != nil {
			code.TotalRewards = models.NewMoneyFromDecimal(code.TotalRewards.Decimal.Add(prize.Amount))
			if err := repo.UpdateCode(code); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("lottery_drawn",
		"user_id", userID, "prize_level", entry.PrizeLevel, "prize_amount", entry.PrizeAmount.String(),
	)
	return entry, nil
}

// ReferralStats 推荐统计
type ReferralStats struct {
	UserID            int64        `json:"user_id"`            // 用户ID
	ReferralCode      string       `json:"referral_code"`      // 推荐码
	TotalInvites      int          `json:"total_invites"`      // 累计邀请
	SuccessfulInvites int          `json:"successful_invites"` // 成功邀请
	PendingInvites    int64        `json:"pending_invites"`    // 待完成邀请
	TotalRewards      models.Money `json:"total_rewards"`      // 累计奖励
	LotteryEntries    int          `json:"lottery_entries"`    // 剩余抽奖次数
}

// GetReferralStats 查询用户推荐统计（无推荐码时自动创建）
func (s *ReferralService) GetReferralStats(userID int64) (*ReferralStats, error) {
	code, err := s.GetOrCreateReferralCode(userID)
	if err != nil {
		return nil, err
	}

	pending, err := s.repo.CountReferralsByReferrer(userID, []string{constants.ReferralStatusPending}, nil, nil)
	if err != nil {
		return nil, err
	}

	return &ReferralStats{
		UserID:            userID,
		ReferralCode:      code.ReferralCode,
		TotalInvites:      code.TotalInvites,
		SuccessfulInvites: code.SuccessfulInvites,
		PendingInvites:    pending,
		TotalRewards:      code.TotalRewards,
		LotteryEntries:    code.LotteryEntries,
	}, nil
}

// ListUserRewards 分页查询用户奖励流水
func (s *ReferralService) ListUserRewards(filter repository.RewardListFilter) ([]models.ReferralReward, int64, error) {
	return s.repo.ListRewards(filter)
}

// ListLotteryHistory 查询用户抽奖历史
func (s *ReferralService) ListLotteryHistory(userID int64, limit int) ([]models.LotteryEntry, error) {
	return s.repo.ListLotteryEntries(userID, limit)
}

// calcDividend 分红 = min(交易额 × 分红比例, 分红上限)，保留 2 位小数
func (s *ReferralService) calcDividend(amount decimal.Decimal) decimal.Decimal {
	rate := decimal.NewFromFloat(s.cfg.DividendRate)
	cap := decimal.NewFromFloat(s.cfg.DividendCap)
	dividend := amount.Mul(rate).Round(2)
	if dividend.GreaterThan(cap) {
		return cap.Round(2)
	}
	return dividend
}

func (s *ReferralService) lotteryEveryNth() int {
	if s.cfg.LotteryEveryNth <= 0 {
		return 0
	}
	return s.cfg.LotteryEveryNth
}

// pickPrize 按累计概率选奖：第一个累计阈值 >= 随机数的奖项中奖，
// 随机数落在表外时兜底末档
func (s *ReferralService) pickPrize() lotteryPrize {
	r := s.roll()
	cumulative := 0.0
	for _, prize := range lotteryPrizes {
		cumulative += prize.Probability
		if r <= cumulative {
			return prize
		}
	}
	return lotteryPrizes[len(lotteryPrizes)-1]
}

// isUniqueViolation 判断是否唯一键冲突（sqlite/postgres 报错文案不同，按关键词匹配）
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
