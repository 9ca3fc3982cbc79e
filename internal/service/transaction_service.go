package service

import (
	"errors"
	"strings"
	"time"

	"github.com/wushipay/wushipay/internal/config"
	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/logger"
	"github.com/wushipay/wushipay/internal/models"
	"github.com/wushipay/wushipay/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 订单号前缀
const orderIDPrefix = "WS"

// TransactionService 交易服务。
// 状态机：pending -> paid / failed / cancelled，paid -> refunded；
// 所有状态流转在行锁下执行，重复标记已支付幂等。
type TransactionService struct {
	repo       repository.TransactionRepository
	userRepo   repository.UserRepository
	calculator *CalculatorService
	referral   *ReferralService
	cfg        config.TransactionConfig
}

// NewTransactionService 创建交易服务
func NewTransactionService(
	repo repository.TransactionRepository,
	userRepo repository.UserRepository,
	calculator *CalculatorService,
	referral *ReferralService,
	cfg config.TransactionConfig,
) *TransactionService {
	return &TransactionService{
		repo:       repo,
		userRepo:   userRepo,
		calculator: calculator,
		referral:   referral,
		cfg:        cfg,
	}
}

// CreateTransactionInput 创建交易入参
type CreateTransactionInput struct {
	UserID          int64           `json:"user_id"`          // 平台用户ID
	TransactionType string          `json:"transaction_type"` // 交易类型
	PaymentChannel  string          `json:"payment_channel"`  // 支付渠道
	Amount          decimal.Decimal `json:"amount"`           // 交易金额
	Description     string          `json:"description"`      // 备注
}

// CreateTransaction 创建待支付交易。
// 按用户 VIP 等级计算手续费，订单号全局唯一，到期未支付由后台清理任务取消。
func (s *TransactionService) CreateTransaction(input CreateTransactionInput) (*models.Transaction, error) {
	if !constants.IsValidTransactionType(input.TransactionType) {
		return nil, ErrInvalidTransactionType
	}
	if !constants.IsValidPaymentChannel(input.PaymentChannel) {
		return nil, ErrInvalidPaymentChannel
	}

	user, err := s.userRepo.GetByUserID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if user.Status == constants.UserStatusBlocked {
		return nil, ErrUserBlocked
	}

	if err := s.calculator.ValidateAmount(input.Amount, input.PaymentChannel, user.VIPLevel); err != nil {
		return nil, err
	}
	fee, err := s.calculator.CalculateFee(input.Amount, input.PaymentChannel, user.VIPLevel)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	txn := &models.Transaction{
		UserID:          input.UserID,
		OrderID:         generateOrderID(now),
		TransactionType: input.TransactionType,
		PaymentChannel:  input.PaymentChannel,
		Amount:          fee.Amount,
		Fee:             fee.Fee,
		ActualAmount:    fee.ActualAmount,
		Currency:        "CNY",
		Status:          constants.TransactionStatusPending,
		Description:     input.Description,
		ExpiredAt:       now.Add(time.Duration(s.expireMinutes()) * time.Minute),
	}
	if err := s.repo.Create(txn); err != nil {
		return nil, err
	}

	logger.Infow("transaction_created",
		"order_id", txn.OrderID, "user_id", txn.UserID,
		"amount", txn.Amount.String(), "fee", txn.Fee.String(), "channel", txn.PaymentChannel,
	)
	return txn, nil
}

// MarkPaid 标记交易为已支付。
// 幂等：已支付直接返回；已过期的待支付单转为已取消并报错。
// 首笔已支付交易在同一事务内触发推荐奖励与新用户红包。
func (s *TransactionService) MarkPaid(orderID string) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		userRepo := s.userRepo.WithTx(tx)

		locked, err := repo.GetByOrderIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrTransactionNotFound
		}
		txn = locked

		if locked.Status == constants.TransactionStatusPaid {
			return nil
		}
		if locked.Status != constants.TransactionStatusPending {
			return ErrTransactionStateInvalid
		}

		now := time.Now()
		if now.After(locked.ExpiredAt) {
			// 不能在本事务里改状态：返回哨兵错误会整体回滚，取消动作放到事务外执行
			return ErrTransactionExpired
		}

		if err := repo.UpdateStatus(orderID, constants.TransactionStatusPaid, map[string]interface{}{
			"paid_at": now,
		}); err != nil {
			return err
		}
		locked.Status = constants.TransactionStatusPaid
		locked.PaidAt = &now

		if err := userRepo.AddStatistics(locked.UserID, locked.Amount.Decimal, now); err != nil {
			return err
		}

		paidCount, err := userRepo.CountPaidTransactions(locked.UserID)
		if err != nil {
			return err
		}
		if paidCount == 1 {
			if err := s.referral.HandleFirstPaidTransactionTx(tx, locked.UserID, locked.Amount.Decimal, now); err != nil {
				return err
			}
			if err := s.referral.GrantNewUserBonusTx(tx, locked.UserID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrTransactionExpired) {
		// 过期单在独立事务里转为已取消，保证取消动作随事务提交
		if cancelErr := s.transitionFromPending(orderID, constants.TransactionStatusCancelled, ""); cancelErr == nil {
			txn.Status = constants.TransactionStatusCancelled
		} else if !errors.Is(cancelErr, ErrTransactionStateInvalid) {
			logger.Warnw("transaction_expire_cancel_failed", "order_id", orderID, "error", cancelErr)
		}
		return txn, ErrTransactionExpired
	}
	if err != nil {
		return txn, err
	}

	logger.Infow("transaction_paid", "order_id", orderID, "user_id", txn.UserID)
	return txn, nil
}

// MarkFailed 标记交易失败（仅限待支付状态）
func (s *TransactionService) MarkFailed(orderID, reason string) error {
	return s.transitionFromPending(orderID, constants.TransactionStatusFailed, reason)
}

// Cancel 取消交易（仅限待支付状态）
func (s *TransactionService) Cancel(orderID string) error {
	return s.transitionFromPending(orderID, constants.TransactionStatusCancelled, "")
}

// Refund 退款（仅限已支付状态）
func (s *TransactionService) Refund(orderID string) error {
	return s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		locked, err := repo.GetByOrderIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrTransactionNotFound
		}
		if locked.Status != constants.TransactionStatusPaid {
			return ErrTransactionStateInvalid
		}

		if err := repo.UpdateStatus(orderID, constants.TransactionStatusRefunded, nil); err != nil {
			return err
		}
		logger.Infow("transaction_refunded", "order_id", orderID, "user_id", locked.UserID)
		return nil
	})
}

// ExpirePendingTransactions 批量取消过期未支付交易，返回处理数量
func (s *TransactionService) ExpirePendingTransactions(now time.Time) (int64, error) {
	expired, err := s.repo.ExpirePending(now)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		logger.Infow("transactions_expired", "count", expired)
	}
	return expired, nil
}

// GetTransaction 按订单号查询交易
func (s *TransactionService) GetTransaction(orderID string) (*models.Transaction, error) {
	txn, err := s.repo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}
	return txn, nil
}

// ListTransactions 分页查询交易
func (s *TransactionService) ListTransactions(filter repository.TransactionListFilter) ([]models.Transaction, int64, error) {
	return s.repo.List(filter)
}

func (s *TransactionService) transitionFromPending(orderID, target, reason string) error {
	return s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		locked, err := repo.GetByOrderIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrTransactionNotFound
		}
		if locked.Status != constants.TransactionStatusPending {
			return ErrTransactionStateInvalid
		}

		updates := map[string]interface{}{}
		if reason != "" {
			updates["description"] = strings.TrimSpace(locked.Description + " | " + reason)
		}
		return repo.UpdateStatus(orderID, target, updates)
	})
}

func (s *TransactionService) expireMinutes() int {
	if s.cfg.ExpireMinutes <= 0 {
		return 30
	}
	return s.cfg.ExpireMinutes
}

// generateOrderID 生成订单号：WS + 时间戳 + UUID 片段
func generateOrderID(now time.Time) string {
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return orderIDPrefix + now.Format("20060102150405") + fragment
}
