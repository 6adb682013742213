// stats_postgres.go

package trivia

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jacl-coder/TriviaStorm-Server/internal/models"
	"github.com/jacl-coder/TriviaStorm-Server/pkg/db"
)

// PostgresStatsStore 基于PostgreSQL的结算存储。
// 归档与累计统计在同一个事务中写入，提交成功后再刷新Redis榜单。
type PostgresStatsStore struct {
	useRedis bool
}

// NewPostgresStatsStore 创建结算存储
func NewPostgresStatsStore() *PostgresStatsStore {
	return &PostgresStatsStore{
		useRedis: db.RedisClient != nil,
	}
}

// ApplySessionEnd 写入对局归档并滚入累计统计
func (s *PostgresStatsStore) ApplySessionEnd(session *models.Session, results []models.SessionResult) error {
	tx, err := db.DB.Begin()
	if err != nil {
		return fmt.Errorf("开启结算事务失败: %w", err)
	}
	defer tx.Rollback()

	// 归档对局
	var winnerID sql.NullInt64
	if session.WinnerID != 0 {
		winnerID = sql.NullInt64{Int64: session.WinnerID, Valid: true}
	}
	_, err = tx.Exec(`
		INSERT INTO session_records (id, host_id, winner_id, winning_score, player_count, question_count, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.HostID, winnerID, session.WinningScore,
		session.PlayerCount, len(session.Questions),
		unixToTime(session.StartTime), unixToTime(session.EndTime),
	)
	if err != nil {
		return fmt.Errorf("写入对局归档失败: %w", err)
	}

	// 逐个玩家写入单局结果并更新累计统计
	for _, result := range results {
		_, err = tx.Exec(`
			INSERT INTO session_results (session_id, account_id, display_name, score, correct_answers, best_streak, is_winner)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			result.SessionID, result.AccountID, result.DisplayName,
			result.Score, result.CorrectAnswers, result.BestStreak, result.IsWinner,
		)
		if err != nil {
			return fmt.Errorf("写入玩家 %d 单局结果失败: %w", result.AccountID, err)
		}

		wins := 0
		if result.IsWinner {
			wins = 1
		}
		_, err = tx.Exec(`
			INSERT INTO player_stats (account_id, games_played, total_wins, total_score, best_score, total_correct_answers, longest_streak, updated_at)
			VALUES ($1, 1, $2, $3, $3, $4, $5, NOW())
			ON CONFLICT (account_id) DO UPDATE SET
				games_played = player_stats.games_played + 1,
				total_wins = player_stats.total_wins + $2,
				total_score = player_stats.total_score + $3,
				best_score = GREATEST(player_stats.best_score, $3),
				total_correct_answers = player_stats.total_correct_answers + $4,
				longest_streak = GREATEST(player_stats.longest_streak, $5),
				updated_at = NOW()`,
			result.AccountID, wins, result.Score, result.CorrectAnswers, result.BestStreak,
		)
		if err != nil {
			return fmt.Errorf("更新玩家 %d 累计统计失败: %w", result.AccountID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交结算事务失败: %w", err)
	}

	// 事务提交后刷新Redis榜单，失败只记日志不影响结算
	if s.useRedis {
		s.refreshLeaderboards(results)
	}

	return nil
}

// GetPlayerStats 查询玩家累计统计，没有记录时返回零值
func (s *PostgresStatsStore) GetPlayerStats(accountID int64) (*models.PlayerStats, error) {
	stats := &models.PlayerStats{AccountID: accountID}

	err := db.DB.QueryRow(`
		SELECT games_played, total_wins, total_score, best_score, total_correct_answers, longest_streak
		FROM player_stats
		WHERE account_id = $1`,
		accountID,
	).Scan(
		&stats.GamesPlayed, &stats.TotalWins, &stats.TotalScore,
		&stats.BestScore, &stats.TotalCorrectAnswers, &stats.LongestStreak,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return stats, nil
		}
		return nil, fmt.Errorf("查询玩家统计失败: %w", err)
	}

	return stats, nil
}

// refreshLeaderboards 用最新累计统计刷新参与玩家的榜单条目
func (s *PostgresStatsStore) refreshLeaderboards(results []models.SessionResult) {
	leaderboard := models.NewRedisLeaderboard()

	for _, result := range results {
		var stats models.PlayerStats
		var username string
		err := db.DB.QueryRow(`
			SELECT s.account_id, a.username, s.games_played, s.total_wins, s.total_score, s.best_score, s.longest_streak
			FROM player_stats s
			JOIN accounts a ON a.id = s.account_id
			WHERE s.account_id = $1`,
			result.AccountID,
		).Scan(
			&stats.AccountID, &username, &stats.GamesPlayed, &stats.TotalWins,
			&stats.TotalScore, &stats.BestScore, &stats.LongestStreak,
		)
		if err != nil {
			log.Printf("读取玩家 %d 统计失败，跳过榜单刷新: %v", result.AccountID, err)
			continue
		}

		if err := leaderboard.UpdateFromStats(&stats, username); err != nil {
			log.Printf("刷新玩家 %d 榜单失败: %v", result.AccountID, err)
		}
	}
}

// unixToTime Unix秒转时间，零值转为NULL友好的零时间
func unixToTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
