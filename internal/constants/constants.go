package constants

// 用户状态常量
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

// VIP 等级范围
const (
	VIPLevelMin = 0
	VIPLevelMax = 3
)

// 交易类型常量
const (
	TransactionTypeReceive = "receive"
	TransactionTypePay     = "pay"
	TransactionTypeRefund  = "refund"
)

// 交易状态常量
const (
	TransactionStatusPending   = "pending"
	TransactionStatusPaid      = "paid"
	TransactionStatusFailed    = "failed"
	TransactionStatusRefunded  = "refunded"
	TransactionStatusCancelled = "cancelled"
)

// 支付渠道常量
const (
	PaymentChannelAlipay = "alipay"
	PaymentChannelWechat = "wechat"
)

// 群成员状态常量
const (
	GroupMemberStatusPending  = "pending"
	GroupMemberStatusVerified = "verified"
	GroupMemberStatusRejected = "rejected"
)

// 验证模式常量
const (
	VerificationModeQuestion = "question"
	VerificationModeManual   = "manual"
	VerificationModeAIScore  = "ai_score"
)

// 验证题型常量
const (
	QuestionTypeFillBlank    = "fill_blank"
	QuestionTypeSingleChoice = "single_choice"
	QuestionTypeTrueFalse    = "true_false"
)

// 验证题难度常量
const (
	QuestionDifficultyEasy   = "easy"
	QuestionDifficultyMedium = "medium"
	QuestionDifficultyHard   = "hard"
)

// 验证结果常量
const (
	VerificationResultPending  = "pending"
	VerificationResultPassed   = "passed"
	VerificationResultRejected = "rejected"
)

// 推荐关系状态常量
const (
	ReferralStatusPending          = "pending"
	ReferralStatusFirstTransaction = "first_transaction"
	ReferralStatusRewarded         = "rewarded"
)

// 奖励类型常量
const (
	RewardTypeInvite       = "invite"
	RewardTypeDividend     = "dividend"
	RewardTypeLottery      = "lottery"
	RewardTypeNewUserBonus = "new_user_bonus"
)

// 奖励发放状态常量
const (
	RewardStatusPending = "pending"
	RewardStatusPaid    = "paid"
)

// 抽奖记录状态常量
const (
	LotteryEntryStatusPending = "pending"
	LotteryEntryStatusPaid    = "paid"
)

// 月度排行状态常量
const (
	RankingStatusPending  = "pending"
	RankingStatusRewarded = "rewarded"
)

// 敏感词处理动作常量
const (
	SensitiveWordActionWarn   = "warn"
	SensitiveWordActionDelete = "delete"
	SensitiveWordActionBan    = "ban"
)

// 管理员角色常量
const (
	AdminRoleAdmin = "admin"
	AdminRoleSuper = "super_admin"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型常量
const (
	TaskVerificationSweep = "verification:sweep_expired"
	TaskTransactionExpire = "transaction:expire_pending"
	TaskRankingSnapshot   = "ranking:monthly_snapshot"
)

// IsValidTransactionType 判断交易类型是否合法
func IsValidTransactionType(t string) bool {
	switch t {
	case TransactionTypeReceive, TransactionTypePay, TransactionTypeRefund:
		return true
	}
	return false
}

// IsValidPaymentChannel 判断支付渠道是否合法
func IsValidPaymentChannel(channel string) bool {
	switch channel {
	case PaymentChannelAlipay, PaymentChannelWechat:
		return true
	}
	return false
}

// IsValidVerificationMode 判断验证模式是否合法
func IsValidVerificationMode(mode string) bool {
	switch mode {
	case VerificationModeQuestion, VerificationModeManual, VerificationModeAIScore:
		return true
	}
	return false
}

// IsValidQuestionType 判断题型是否合法
func IsValidQuestionType(t string) bool {
	switch t {
	case QuestionTypeFillBlank, QuestionTypeSingleChoice, QuestionTypeTrueFalse:
		return true
	}
	return false
}
