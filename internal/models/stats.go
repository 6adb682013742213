// stats.go

package models

// PlayerStats 玩家跨对局累计统计
type PlayerStats struct {
	AccountID           int64 `json:"account_id"`
	GamesPlayed         int   `json:"games_played"`
	TotalWins           int   `json:"total_wins"`
	TotalScore          int64 `json:"total_score"`
	BestScore           int64 `json:"best_score"`
	TotalCorrectAnswers int   `json:"total_correct_answers"`
	LongestStreak       int   `json:"longest_streak"`
}

// SessionResult 单个玩家的单局结算结果
type SessionResult struct {
	SessionID      int64  `json:"session_id"`
	AccountID      int64  `json:"account_id"`
	DisplayName    string `json:"display_name"`
	Score          int64  `json:"score"`
	CorrectAnswers int    `json:"correct_answers"`
	BestStreak     int    `json:"best_streak"`
	IsWinner       bool   `json:"is_winner"`
}

// PlayerSessionRecord 玩家历史对局记录
type PlayerSessionRecord struct {
	SessionID      int64 `json:"session_id"`
	HostID         int64 `json:"host_id"`
	Score          int64 `json:"score"`
	CorrectAnswers int   `json:"correct_answers"`
	BestStreak     int   `json:"best_streak"`
	IsWinner       bool  `json:"is_winner"`
	PlayerCount    int   `json:"player_count"`
	QuestionCount  int   `json:"question_count"`
	StartedAt      int64 `json:"started_at"`
	EndedAt        int64 `json:"ended_at"`
}

// LeaderboardEntry 全局排行榜条目
type LeaderboardEntry struct {
	AccountID     int64   `json:"account_id"`
	Username      string  `json:"username"`
	GamesPlayed   int     `json:"games_played"`
	TotalWins     int     `json:"total_wins"`
	TotalScore    int64   `json:"total_score"`
	BestScore     int64   `json:"best_score"`
	LongestStreak int     `json:"longest_streak"`
	WinRate       float64 `json:"win_rate"`
	Score         float64 `json:"score"` // 当前榜单维度的分值
	Rank          int     `json:"rank"`  // 排名
}

// LeaderboardType 全局排行榜类型
type LeaderboardType string

const (
	// LeaderboardScore 累计得分排行榜
	LeaderboardScore LeaderboardType = "score"
	// LeaderboardWins 胜场排行榜
	LeaderboardWins LeaderboardType = "wins"
	// LeaderboardBest 单局最高分排行榜
	LeaderboardBest LeaderboardType = "best"
	// LeaderboardStreak 最长连对排行榜
	LeaderboardStreak LeaderboardType = "streak"
)

// 注意：表结构定义在 pkg/db/schema.go 统一管理
