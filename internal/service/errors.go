package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid       = errors.New("参数错误")
	ErrTitleBlank         = errors.New("标题不能为空")
	ErrContentBlank       = errors.New("内容不能为空")
	ErrNoRecipient        = errors.New("至少需要一个收件人")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUserBan            = errors.New("用户已被封禁")
	ErrPasswordIncorrect  = errors.New("密码错误")
	ErrMessageNotFound    = errors.New("消息不存在")
	ErrReplyTargetMissing = errors.New("被回复的消息不存在")
	ErrDeleteNotSender    = errors.New("只有发送者可以删除消息")
	ErrDeleteAlreadyRead  = errors.New("已读消息不能删除")
	ErrSessionClosed      = errors.New("收件箱会话已关闭")
	ErrFileNotSupported   = errors.New("不支持的文件类型")
	UnauthorizedError     = errors.New("权限不足")
	UnExpectedError       = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:       BadRequest,
	ErrTitleBlank:         BadRequest,
	ErrContentBlank:       BadRequest,
	ErrNoRecipient:        BadRequest,
	ErrUserNotFound:       NotFound,
	ErrUserBan:            Unauthorized,
	ErrPasswordIncorrect:  Unauthorized,
	ErrMessageNotFound:    NotFound,
	ErrReplyTargetMissing: NotFound,
	ErrDeleteNotSender:    Unauthorized,
	ErrDeleteAlreadyRead:  BadRequest,
	ErrSessionClosed:      BadRequest,
	ErrFileNotSupported:   BadRequest,
	UnauthorizedError:     Unauthorized,
	UnExpectedError:       InternalServerError,
}
