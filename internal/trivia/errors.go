// errors.go

package trivia

import "errors"

// 对局操作的错误分类。所有错误都是对单次调用的同步拒绝，
// 在任何状态写入之前检出，核心内部不做重试。
var (
	// ErrUnauthorized 调用者不是主持人
	ErrUnauthorized = errors.New("无权执行该操作")
	// ErrSessionNotFound 对局不存在
	ErrSessionNotFound = errors.New("对局不存在")
	// ErrSessionAlreadyActive 对局已开始，不能重复开始或加入
	ErrSessionAlreadyActive = errors.New("对局已开始")
	// ErrSessionNotActive 对局不在进行中
	ErrSessionNotActive = errors.New("对局不在进行中")
	// ErrSessionFull 对局人数已满
	ErrSessionFull = errors.New("对局人数已满")
	// ErrPlayerNotInSession 玩家不在对局中
	ErrPlayerNotInSession = errors.New("玩家不在对局中")
	// ErrPlayerAlreadyJoined 玩家已加入该对局
	ErrPlayerAlreadyJoined = errors.New("玩家已加入该对局")
	// ErrInvalidRoomCode 加入口令不正确
	ErrInvalidRoomCode = errors.New("加入口令不正确")
	// ErrInvalidQuestionIndex 提交的题目序号不是当前题目
	ErrInvalidQuestionIndex = errors.New("题目序号无效")
	// ErrQuestionNotActive 当前题目已超时
	ErrQuestionNotActive = errors.New("题目已超时")
	// ErrAlreadyAnswered 该题已提交过答案
	ErrAlreadyAnswered = errors.New("该题已提交过答案")
	// ErrInvalidAnswer 答案内容无效
	ErrInvalidAnswer = errors.New("答案内容无效")
	// ErrInvalidDuration 答题时限必须为正数
	ErrInvalidDuration = errors.New("答题时限必须为正数")
	// ErrInsufficientPrize 奖金不足（预留给结算服务，核心不使用）
	ErrInsufficientPrize = errors.New("奖金不足")
)

// ErrorCode 返回错误对应的机器可读代码，供HTTP层下发给客户端
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrSessionNotFound):
		return "SESSION_NOT_FOUND"
	case errors.Is(err, ErrSessionAlreadyActive):
		return "SESSION_ALREADY_ACTIVE"
	case errors.Is(err, ErrSessionNotActive):
		return "SESSION_NOT_ACTIVE"
	case errors.Is(err, ErrSessionFull):
		return "SESSION_FULL"
	case errors.Is(err, ErrPlayerNotInSession):
		return "PLAYER_NOT_IN_SESSION"
	case errors.Is(err, ErrPlayerAlreadyJoined):
		return "PLAYER_ALREADY_JOINED"
	case errors.Is(err, ErrInvalidRoomCode):
		return "INVALID_ROOM_CODE"
	case errors.Is(err, ErrInvalidQuestionIndex):
		return "INVALID_QUESTION_INDEX"
	case errors.Is(err, ErrQuestionNotActive):
		return "QUESTION_NOT_ACTIVE"
	case errors.Is(err, ErrAlreadyAnswered):
		return "ALREADY_ANSWERED"
	case errors.Is(err, ErrInvalidAnswer):
		return "INVALID_ANSWER"
	case errors.Is(err, ErrInvalidDuration):
		return "INVALID_DURATION"
	case errors.Is(err, ErrInsufficientPrize):
		return "INSUFFICIENT_PRIZE"
	default:
		return "INTERNAL_ERROR"
	}
}
