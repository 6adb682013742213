// session.go

package models

// SessionStatus 对局状态
type SessionStatus string

const (
	// SessionCreated 已创建，等待玩家加入
	SessionCreated SessionStatus = "created"
	// SessionActive 进行中
	SessionActive SessionStatus = "active"
	// SessionCompleted 已结束
	SessionCompleted SessionStatus = "completed"
	// SessionCancelled 已取消（保留状态，当前不会进入）
	SessionCancelled SessionStatus = "cancelled"
)

// Difficulty 题目难度
type Difficulty string

const (
	// DifficultyEasy 简单
	DifficultyEasy Difficulty = "easy"
	// DifficultyMedium 中等
	DifficultyMedium Difficulty = "medium"
	// DifficultyHard 困难
	DifficultyHard Difficulty = "hard"
)

// Multiplier 难度系数（百分比）
func (d Difficulty) Multiplier() int64 {
	switch d {
	case DifficultyMedium:
		return 150
	case DifficultyHard:
		return 200
	case DifficultyEasy:
		return 100
	default:
		// 未知难度按简单计算，宽松处理而不是报错
		return 100
	}
}

// Session 一局答题游戏
type Session struct {
	ID       int64         `json:"id"`
	HostID   int64         `json:"host_id"`
	RoomCode string        `json:"-"` // 加入口令，不对外序列化
	Status   SessionStatus `json:"status"`

	// 时间相关字段统一使用Unix秒
	CreatedAt int64 `json:"created_at"`
	StartTime int64 `json:"start_time,omitempty"`
	EndTime   int64 `json:"end_time,omitempty"`

	// 当前题目进度
	CurrentQuestionIndex int   `json:"current_question_index"`
	QuestionStartTime    int64 `json:"question_start_time,omitempty"`
	QuestionDuration     int   `json:"question_duration"` // 缺省答题时限(秒)

	// 玩家管理，PlayerList 保持加入顺序
	Players     map[int64]*Player `json:"-"`
	PlayerList  []int64           `json:"player_list"`
	PlayerCount int               `json:"player_count"`
	MaxPlayers  int               `json:"max_players"`

	// 实时追踪的领先者
	WinnerID     int64 `json:"winner_id"`
	WinningScore int64 `json:"winning_score"`

	// 题目与答案记录，按题目序号索引
	Questions map[int]*Question         `json:"-"`
	Answers   map[int]map[int64]*Answer `json:"-"`
}

// Player 对局内的玩家记录
type Player struct {
	AccountID   int64  `json:"account_id"`
	DisplayName string `json:"display_name"`

	Score             int64 `json:"score"`
	CurrentStreak     int   `json:"current_streak"`
	BestStreak        int   `json:"best_streak"`
	CorrectAnswers    int   `json:"correct_answers"`
	TotalResponseTime int64 `json:"total_response_time"` // 累计答题耗时(秒)

	IsActive bool  `json:"is_active"`
	JoinTime int64 `json:"join_time"`
}

// Question 由主持人下发的题目，创建后不再修改
type Question struct {
	Index       int        `json:"index"`
	ContentHash string     `json:"content_hash"`
	Type        string     `json:"type"`
	Difficulty  Difficulty `json:"difficulty"`
	TimeLimit   int        `json:"time_limit"` // 秒
	CorrectHash string     `json:"-"`          // 正确答案哈希，不对外序列化
}

// Answer 玩家对某道题的作答，每个(题目,玩家)只允许写入一次
type Answer struct {
	AnswerHash   string `json:"answer_hash"`
	SubmitTime   int64  `json:"submit_time"`
	IsCorrect    bool   `json:"is_correct"`
	PointsEarned int64  `json:"points_earned"`
}

// LeaderboardRow 单局排行榜条目，按分数降序、加入顺序稳定排序
type LeaderboardRow struct {
	Rank        int    `json:"rank"`
	AccountID   int64  `json:"account_id"`
	DisplayName string `json:"display_name"`
	Score       int64  `json:"score"`
}

// SessionInfo 对局概要信息
type SessionInfo struct {
	ID                   int64         `json:"id"`
	HostID               int64         `json:"host_id"`
	Status               SessionStatus `json:"status"`
	PlayerCount          int           `json:"player_count"`
	MaxPlayers           int           `json:"max_players"`
	CurrentQuestionIndex int           `json:"current_question_index"`
	QuestionDuration     int           `json:"question_duration"`
	CreatedAt            int64         `json:"created_at"`
	StartTime            int64         `json:"start_time,omitempty"`
	EndTime              int64         `json:"end_time,omitempty"`
	WinnerID             int64         `json:"winner_id,omitempty"`
	WinningScore         int64         `json:"winning_score,omitempty"`
}

// Info 生成对局概要
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		ID:                   s.ID,
		HostID:               s.HostID,
		Status:               s.Status,
		PlayerCount:          s.PlayerCount,
		MaxPlayers:           s.MaxPlayers,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		QuestionDuration:     s.QuestionDuration,
		CreatedAt:            s.CreatedAt,
		StartTime:            s.StartTime,
		EndTime:              s.EndTime,
		WinnerID:             s.WinnerID,
		WinningScore:         s.WinningScore,
	}
}
