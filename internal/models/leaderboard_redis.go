package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jacl-coder/TriviaStorm-Server/pkg/db"
)

// RedisLeaderboard Redis全局排行榜管理器
type RedisLeaderboard struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisLeaderboard 创建Redis排行榜管理器
func NewRedisLeaderboard() *RedisLeaderboard {
	return &RedisLeaderboard{
		client: db.RedisClient,
		ctx:    context.Background(),
	}
}

// 排行榜Redis键名
const (
	LeaderboardScoreKey  = "leaderboard:score"
	LeaderboardWinsKey   = "leaderboard:wins"
	LeaderboardBestKey   = "leaderboard:best"
	LeaderboardStreakKey = "leaderboard:streak"

	// 玩家详细信息键前缀
	PlayerInfoPrefix = "player:info:"

	// 排行榜缓存时间
	LeaderboardCacheTTL = 5 * time.Minute
)

// UpdatePlayerScore 更新玩家在某个榜单上的分值
func (rl *RedisLeaderboard) UpdatePlayerScore(accountID int64, boardType LeaderboardType, score float64) error {
	key := rl.getLeaderboardKey(boardType)
	return rl.client.ZAdd(rl.ctx, key, &redis.Z{
		Score:  score,
		Member: accountID,
	}).Err()
}

// UpdatePlayerInfo 缓存玩家排行榜信息
func (rl *RedisLeaderboard) UpdatePlayerInfo(entry *LeaderboardEntry) error {
	key := fmt.Sprintf("%s%d", PlayerInfoPrefix, entry.AccountID)

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return rl.client.Set(rl.ctx, key, data, LeaderboardCacheTTL).Err()
}

// UpdateFromStats 结算后用最新累计统计刷新各榜单
func (rl *RedisLeaderboard) UpdateFromStats(stats *PlayerStats, username string) error {
	if err := rl.UpdatePlayerScore(stats.AccountID, LeaderboardScore, float64(stats.TotalScore)); err != nil {
		return err
	}
	rl.UpdatePlayerScore(stats.AccountID, LeaderboardWins, float64(stats.TotalWins))
	rl.UpdatePlayerScore(stats.AccountID, LeaderboardBest, float64(stats.BestScore))
	rl.UpdatePlayerScore(stats.AccountID, LeaderboardStreak, float64(stats.LongestStreak))

	entry := &LeaderboardEntry{
		AccountID:     stats.AccountID,
		Username:      username,
		GamesPlayed:   stats.GamesPlayed,
		TotalWins:     stats.TotalWins,
		TotalScore:    stats.TotalScore,
		BestScore:     stats.BestScore,
		LongestStreak: stats.LongestStreak,
	}
	if stats.GamesPlayed > 0 {
		entry.WinRate = float64(stats.TotalWins) * 100.0 / float64(stats.GamesPlayed)
	}

	return rl.UpdatePlayerInfo(entry)
}

// GetLeaderboard 获取排行榜
func (rl *RedisLeaderboard) GetLeaderboard(boardType LeaderboardType, limit int) ([]LeaderboardEntry, error) {
	key := rl.getLeaderboardKey(boardType)

	// 从Redis获取排行榜（按分数降序）
	members, err := rl.client.ZRevRangeWithScores(rl.ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	var entries []LeaderboardEntry
	for i, member := range members {
		accountID, err := strconv.ParseInt(member.Member.(string), 10, 64)
		if err != nil {
			continue
		}

		// 获取玩家详细信息
		entry, err := rl.getPlayerInfo(accountID)
		if err != nil {
			// 如果Redis中没有玩家信息，从数据库获取
			entry, err = rl.getPlayerInfoFromDB(accountID)
			if err != nil {
				continue
			}
			// 缓存到Redis
			rl.UpdatePlayerInfo(entry)
		}

		// 更新分数和排名
		entry.Score = member.Score
		entry.Rank = i + 1

		entries = append(entries, *entry)
	}

	return entries, nil
}

// GetPlayerRank 获取玩家排名
func (rl *RedisLeaderboard) GetPlayerRank(accountID int64, boardType LeaderboardType) (int, error) {
	key := rl.getLeaderboardKey(boardType)

	rank, err := rl.client.ZRevRank(rl.ctx, key, strconv.FormatInt(accountID, 10)).Result()
	if err != nil {
		if err == redis.Nil {
			return -1, nil // 玩家不在排行榜中
		}
		return -1, err
	}

	return int(rank) + 1, nil // Redis排名从0开始，转换为从1开始
}

// RefreshLeaderboard 刷新排行榜（从数据库重新加载）
func (rl *RedisLeaderboard) RefreshLeaderboard() error {
	// 查询数据库获取最新数据
	query := `
		SELECT
			s.account_id,
			a.username,
			s.games_played,
			s.total_wins,
			s.total_score,
			s.best_score,
			s.longest_streak,
			CASE WHEN s.games_played > 0 THEN (s.total_wins * 100.0 / s.games_played) ELSE 0 END AS win_rate
		FROM player_stats s
		JOIN accounts a ON a.id = s.account_id
		ORDER BY s.total_score DESC
		LIMIT 1000
	`

	rows, err := db.DB.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	// 清空现有排行榜
	keys := []string{
		LeaderboardScoreKey,
		LeaderboardWinsKey,
		LeaderboardBestKey,
		LeaderboardStreakKey,
	}

	for _, key := range keys {
		rl.client.Del(rl.ctx, key)
	}

	// 重新填充排行榜
	for rows.Next() {
		var entry LeaderboardEntry
		err := rows.Scan(
			&entry.AccountID, &entry.Username, &entry.GamesPlayed,
			&entry.TotalWins, &entry.TotalScore, &entry.BestScore,
			&entry.LongestStreak, &entry.WinRate,
		)
		if err != nil {
			continue
		}

		// 更新各个榜单
		rl.UpdatePlayerScore(entry.AccountID, LeaderboardScore, float64(entry.TotalScore))
		rl.UpdatePlayerScore(entry.AccountID, LeaderboardWins, float64(entry.TotalWins))
		rl.UpdatePlayerScore(entry.AccountID, LeaderboardBest, float64(entry.BestScore))
		rl.UpdatePlayerScore(entry.AccountID, LeaderboardStreak, float64(entry.LongestStreak))

		// 缓存玩家信息
		rl.UpdatePlayerInfo(&entry)
	}

	return nil
}

// getLeaderboardKey 获取排行榜键名
func (rl *RedisLeaderboard) getLeaderboardKey(boardType LeaderboardType) string {
	switch boardType {
	case LeaderboardWins:
		return LeaderboardWinsKey
	case LeaderboardBest:
		return LeaderboardBestKey
	case LeaderboardStreak:
		return LeaderboardStreakKey
	case LeaderboardScore:
		return LeaderboardScoreKey
	default:
		return LeaderboardScoreKey
	}
}

// getPlayerInfo 从Redis获取玩家信息
func (rl *RedisLeaderboard) getPlayerInfo(accountID int64) (*LeaderboardEntry, error) {
	key := fmt.Sprintf("%s%d", PlayerInfoPrefix, accountID)

	data, err := rl.client.Get(rl.ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var entry LeaderboardEntry
	err = json.Unmarshal([]byte(data), &entry)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// getPlayerInfoFromDB 从数据库获取玩家信息
func (rl *RedisLeaderboard) getPlayerInfoFromDB(accountID int64) (*LeaderboardEntry, error) {
	query := `
		SELECT
			s.account_id,
			a.username,
			s.games_played,
			s.total_wins,
			s.total_score,
			s.best_score,
			s.longest_streak,
			CASE WHEN s.games_played > 0 THEN (s.total_wins * 100.0 / s.games_played) ELSE 0 END AS win_rate
		FROM player_stats s
		JOIN accounts a ON a.id = s.account_id
		WHERE s.account_id = $1
	`

	var entry LeaderboardEntry
	err := db.DB.QueryRow(query, accountID).Scan(
		&entry.AccountID, &entry.Username, &entry.GamesPlayed,
		&entry.TotalWins, &entry.TotalScore, &entry.BestScore,
		&entry.LongestStreak, &entry.WinRate,
	)

	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// SetLeaderboardTTL 设置排行榜过期时间
func (rl *RedisLeaderboard) SetLeaderboardTTL(ttl time.Duration) error {
	keys := []string{
		LeaderboardScoreKey,
		LeaderboardWinsKey,
		LeaderboardBestKey,
		LeaderboardStreakKey,
	}

	for _, key := range keys {
		if err := rl.client.Expire(rl.ctx, key, ttl).Err(); err != nil {
			return err
		}
	}

	return nil
}
