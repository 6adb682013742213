// events.go

package models

// EventType 对局事件类型
type EventType string

const (
	// EventSessionCreated 对局创建
	EventSessionCreated EventType = "session_created"
	// EventPlayerJoined 玩家加入
	EventPlayerJoined EventType = "player_joined"
	// EventSessionStarted 对局开始
	EventSessionStarted EventType = "session_started"
	// EventQuestionStarted 题目下发
	EventQuestionStarted EventType = "question_started"
	// EventAnswerSubmitted 答案提交
	EventAnswerSubmitted EventType = "answer_submitted"
	// EventSessionEnded 对局结束
	EventSessionEnded EventType = "session_ended"
)

// SessionEvent 广播给观察者的对局事件，只追加不回溯
type SessionEvent struct {
	Type      EventType `json:"type"`
	SessionID int64     `json:"session_id"`
	Timestamp int64     `json:"timestamp"`

	// 各事件携带的字段，按事件类型填充
	HostID       int64 `json:"host_id,omitempty"`
	AccountID    int64 `json:"account_id,omitempty"`
	PlayerCount  int   `json:"player_count,omitempty"`
	MaxPlayers   int   `json:"max_players,omitempty"`
	QuestionIdx  int   `json:"question_index,omitempty"`
	PointsEarned int64 `json:"points_earned,omitempty"`
	WinnerID     int64 `json:"winner_id,omitempty"`
	WinningScore int64 `json:"winning_score,omitempty"`
	TotalPlayers int   `json:"total_players,omitempty"`
}
