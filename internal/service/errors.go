package service

import "errors"

// 通用错误
var (
	ErrNotFound    = errors.New("记录不存在")
	ErrUserBlocked = errors.New("用户已被封禁")
)

// 交易相关错误
var (
	ErrInvalidTransactionType   = errors.New("非法的交易类型")
	ErrInvalidPaymentChannel    = errors.New("非法的支付渠道")
	ErrAmountOutOfRange         = errors.New("金额超出允许范围")
	ErrTransactionNotFound      = errors.New("交易不存在")
	ErrTransactionStateInvalid  = errors.New("交易状态不允许该操作")
	ErrTransactionExpired       = errors.New("交易已过期")
)

// 入群验证相关错误
var (
	ErrNoPendingVerification = errors.New("没有进行中的验证记录")
	ErrQuestionMissing       = errors.New("验证题目不存在")
	ErrMaxAttemptsExceeded   = errors.New("已超过最大尝试次数")
	ErrVerificationTimeout   = errors.New("回答超时")
)

// 推荐奖励相关错误
var (
	ErrSelfReferral       = errors.New("不能邀请自己")
	ErrAlreadyReferred    = errors.New("该用户已被邀请过")
	ErrReferralCodeInvalid = errors.New("推荐码无效")
	ErrNoLotteryEntries   = errors.New("没有可用的抽奖次数")
)
