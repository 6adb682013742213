// stats.go

package gateway

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/jacl-coder/TriviaStorm-Server/internal/models"
	"github.com/jacl-coder/TriviaStorm-Server/pkg/db"
)

// StatsHandler 战绩处理器
type StatsHandler struct {
	redisLeaderboard *models.RedisLeaderboard
	useRedis         bool
}

// NewStatsHandler 创建战绩处理器
func NewStatsHandler() *StatsHandler {
	useRedis := db.RedisClient != nil
	var redisLeaderboard *models.RedisLeaderboard

	if useRedis {
		redisLeaderboard = models.NewRedisLeaderboard()
	}

	return &StatsHandler{
		redisLeaderboard: redisLeaderboard,
		useRedis:         useRedis,
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *StatsHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/stats/player/", h.handlePlayerStats)
	mux.HandleFunc("/stats/sessions/", h.handlePlayerSessions)
	mux.HandleFunc("/stats/leaderboard", h.handleLeaderboard)
	mux.HandleFunc("/stats/leaderboard/refresh", h.handleRefreshLeaderboard)
}

// StatsResponse 战绩响应
type StatsResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// PlayerSessionsData 玩家对局历史数据
type PlayerSessionsData struct {
	Sessions []models.PlayerSessionRecord `json:"sessions"`
	Total    int                          `json:"total"`
	Page     int                          `json:"page"`
	Limit    int                          `json:"limit"`
}

// handlePlayerStats 处理玩家战绩查询
func (h *StatsHandler) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendErrorResponse(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	// 提取账号ID
	path := strings.TrimPrefix(r.URL.Path, "/stats/player/")
	accountID, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		h.sendErrorResponse(w, "无效的账号ID", http.StatusBadRequest)
		return
	}

	// 查询玩家累计统计
	stats, err := h.getPlayerStats(accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			h.sendErrorResponse(w, "账号不存在", http.StatusNotFound)
			return
		}
		log.Printf("查询玩家战绩失败: %v", err)
		h.sendErrorResponse(w, "查询玩家战绩失败", http.StatusInternalServerError)
		return
	}

	// 返回成功响应
	h.sendSuccessResponse(w, "查询成功", stats)
}

// handlePlayerSessions 处理玩家对局历史查询
func (h *StatsHandler) handlePlayerSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendErrorResponse(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	// 提取账号ID
	path := strings.TrimPrefix(r.URL.Path, "/stats/sessions/")
	accountID, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		h.sendErrorResponse(w, "无效的账号ID", http.StatusBadRequest)
		return
	}

	// 解析查询参数
	query := r.URL.Query()
	limit := 10 // 默认限制
	offset := 0 // 默认偏移

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	// 查询玩家对局历史
	sessions, total, err := h.getPlayerSessions(accountID, limit, offset)
	if err != nil {
		log.Printf("查询玩家对局历史失败: %v", err)
		h.sendErrorResponse(w, "查询对局历史失败", http.StatusInternalServerError)
		return
	}

	// 构建响应数据
	data := &PlayerSessionsData{
		Sessions: sessions,
		Total:    total,
		Page:     offset/limit + 1,
		Limit:    limit,
	}

	// 返回成功响应
	h.sendSuccessResponse(w, "查询成功", data)
}

// handleLeaderboard 处理排行榜查询
func (h *StatsHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendErrorResponse(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	// 解析查询参数
	query := r.URL.Query()
	leaderboardType := query.Get("type")
	if leaderboardType == "" {
		leaderboardType = "score" // 默认按累计得分排序
	}

	limit := 50 // 默认限制
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	// 验证排行榜类型
	validTypes := map[string]bool{
		"score":  true,
		"wins":   true,
		"best":   true,
		"streak": true,
	}

	if !validTypes[leaderboardType] {
		h.sendErrorResponse(w, "无效的排行榜类型", http.StatusBadRequest)
		return
	}

	// 查询排行榜
	leaderboard, err := h.getLeaderboard(models.LeaderboardType(leaderboardType), limit)
	if err != nil {
		log.Printf("查询排行榜失败: %v", err)
		h.sendErrorResponse(w, "查询排行榜失败", http.StatusInternalServerError)
		return
	}

	// 返回成功响应
	h.sendSuccessResponse(w, "查询成功", leaderboard)
}

// handleRefreshLeaderboard 处理排行榜刷新
func (h *StatsHandler) handleRefreshLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendErrorResponse(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}

	if !h.useRedis {
		h.sendErrorResponse(w, "Redis未启用，无需刷新", http.StatusBadRequest)
		return
	}

	// 刷新排行榜
	if err := h.redisLeaderboard.RefreshLeaderboard(); err != nil {
		log.Printf("刷新排行榜失败: %v", err)
		h.sendErrorResponse(w, "刷新排行榜失败", http.StatusInternalServerError)
		return
	}

	// 返回成功响应
	h.sendSuccessResponse(w, "排行榜刷新成功", nil)
}

// sendSuccessResponse 发送成功响应
func (h *StatsHandler) sendSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	resp := StatsResponse{
		Success: true,
		Message: message,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("编码响应失败: %v", err)
	}
}

// sendErrorResponse 发送错误响应
func (h *StatsHandler) sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	resp := StatsResponse{
		Success: false,
		Message: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("编码错误响应失败: %v", err)
	}
}

// 数据库查询方法

// getPlayerStats 获取玩家累计统计
func (h *StatsHandler) getPlayerStats(accountID int64) (*models.PlayerStats, error) {
	query := `
		SELECT account_id, games_played, total_wins, total_score,
		       best_score, total_correct_answers, longest_streak
		FROM player_stats
		WHERE account_id = $1
	`

	var stats models.PlayerStats
	err := db.DB.QueryRow(query, accountID).Scan(
		&stats.AccountID, &stats.GamesPlayed, &stats.TotalWins, &stats.TotalScore,
		&stats.BestScore, &stats.TotalCorrectAnswers, &stats.LongestStreak,
	)

	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// getPlayerSessions 获取玩家对局历史
func (h *StatsHandler) getPlayerSessions(accountID int64, limit, offset int) ([]models.PlayerSessionRecord, int, error) {
	// 先查询总数
	countQuery := `
		SELECT COUNT(*) FROM session_results
		WHERE account_id = $1
	`

	var total int
	err := db.DB.QueryRow(countQuery, accountID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("查询对局总数失败: %w", err)
	}

	// 查询对局记录
	query := `
		SELECT sr.session_id, rec.host_id, sr.score, sr.correct_answers,
		       sr.best_streak, sr.is_winner, rec.player_count, rec.question_count,
		       COALESCE(EXTRACT(EPOCH FROM rec.started_at)::bigint, 0),
		       COALESCE(EXTRACT(EPOCH FROM rec.ended_at)::bigint, 0)
		FROM session_results sr
		JOIN session_records rec ON sr.session_id = rec.id
		WHERE sr.account_id = $1
		ORDER BY rec.ended_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := db.DB.Query(query, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("查询对局记录失败: %w", err)
	}
	defer rows.Close()

	var sessions []models.PlayerSessionRecord
	for rows.Next() {
		var rec models.PlayerSessionRecord
		err := rows.Scan(
			&rec.SessionID, &rec.HostID, &rec.Score, &rec.CorrectAnswers,
			&rec.BestStreak, &rec.IsWinner, &rec.PlayerCount, &rec.QuestionCount,
			&rec.StartedAt, &rec.EndedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("扫描对局记录失败: %w", err)
		}
		sessions = append(sessions, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("遍历对局记录失败: %w", err)
	}

	return sessions, total, nil
}

// getLeaderboard 获取排行榜
func (h *StatsHandler) getLeaderboard(leaderboardType models.LeaderboardType, limit int) ([]models.LeaderboardEntry, error) {
	// 优先使用Redis
	if h.useRedis {
		entries, err := h.redisLeaderboard.GetLeaderboard(leaderboardType, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}

		// Redis失败或无数据时，刷新排行榜并重试
		log.Printf("Redis排行榜查询失败或无数据，刷新排行榜: %v", err)
		if refreshErr := h.redisLeaderboard.RefreshLeaderboard(); refreshErr == nil {
			if entries, err := h.redisLeaderboard.GetLeaderboard(leaderboardType, limit); err == nil {
				return entries, nil
			}
		}

		log.Printf("Redis排行榜刷新失败，回退到数据库查询")
	}

	// 回退到数据库查询
	return h.getLeaderboardFromDB(leaderboardType, limit)
}

// getLeaderboardFromDB 从数据库获取排行榜
func (h *StatsHandler) getLeaderboardFromDB(leaderboardType models.LeaderboardType, limit int) ([]models.LeaderboardEntry, error) {
	var orderBy string

	switch leaderboardType {
	case models.LeaderboardWins:
		orderBy = "ps.total_wins DESC"
	case models.LeaderboardBest:
		orderBy = "ps.best_score DESC"
	case models.LeaderboardStreak:
		orderBy = "ps.longest_streak DESC"
	default:
		orderBy = "ps.total_score DESC"
	}

	query := fmt.Sprintf(`
		SELECT
			ps.account_id,
			a.username,
			ps.games_played,
			ps.total_wins,
			ps.total_score,
			ps.best_score,
			ps.longest_streak,
			CASE WHEN ps.games_played > 0 THEN (ps.total_wins * 100.0 / ps.games_played) ELSE 0 END AS win_rate,
			ROW_NUMBER() OVER (ORDER BY %s) as rank
		FROM player_stats ps
		JOIN accounts a ON ps.account_id = a.id
		ORDER BY %s
		LIMIT $1
	`, orderBy, orderBy)

	rows, err := db.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("查询排行榜失败: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var entry models.LeaderboardEntry
		err := rows.Scan(
			&entry.AccountID, &entry.Username, &entry.GamesPlayed, &entry.TotalWins,
			&entry.TotalScore, &entry.BestScore, &entry.LongestStreak, &entry.WinRate, &entry.Rank,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描排行榜数据失败: %w", err)
		}

		// 当前榜单维度的分值
		switch leaderboardType {
		case models.LeaderboardWins:
			entry.Score = float64(entry.TotalWins)
		case models.LeaderboardBest:
			entry.Score = float64(entry.BestScore)
		case models.LeaderboardStreak:
			entry.Score = float64(entry.LongestStreak)
		default:
			entry.Score = float64(entry.TotalScore)
		}

		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历排行榜数据失败: %w", err)
	}

	return entries, nil
}
