// controller.go

package trivia

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jacl-coder/TriviaStorm-Server/config"
	"github.com/jacl-coder/TriviaStorm-Server/internal/models"
)

// StatsStore 结算存储，在对局结束时把单局结果滚入累计统计。
// 实现必须保证整批结果原子写入：要么全部生效，要么全部失败。
type StatsStore interface {
	ApplySessionEnd(session *models.Session, results []models.SessionResult) error
	GetPlayerStats(accountID int64) (*models.PlayerStats, error)
}

// EventSink 对局事件出口，只追加、不阻塞、不回执
type EventSink interface {
	Emit(event models.SessionEvent)
}

// QuestionMeta 主持人下发题目时提供的元数据。
// 内容由主持人保证正确，核心不做校验。
type QuestionMeta struct {
	ContentHash string            `json:"content_hash"`
	Type        string            `json:"type"`
	Difficulty  models.Difficulty `json:"difficulty"`
	TimeLimit   int               `json:"time_limit"` // 秒，0表示沿用对局缺省时限
	CorrectHash string            `json:"correct_hash"`
}

// Controller 对局生命周期控制器。
// 每个操作先读取状态做前置检查，检查全部通过后才写入，
// 所有操作经 mu 串行执行，调用之间不会观察到部分写入。
type Controller struct {
	mu    sync.Mutex
	store *SessionStore
	stats StatsStore
	sink  EventSink
	cfg   *config.GameConfig

	// 可注入的时钟，测试用
	now func() time.Time
}

// NewController 创建对局控制器
func NewController(cfg *config.GameConfig, stats StatsStore, sink EventSink) *Controller {
	return &Controller{
		store: NewSessionStore(),
		stats: stats,
		sink:  sink,
		cfg:   cfg,
		now:   time.Now,
	}
}

// CreateSession 创建对局，返回新分配的对局ID
func (c *Controller) CreateSession(hostID int64, roomCode string, maxPlayers, questionDuration int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if questionDuration < c.cfg.MinQuestionDuration || questionDuration > c.cfg.MaxQuestionDuration {
		return 0, ErrInvalidDuration
	}
	if roomCode == "" {
		return 0, ErrInvalidRoomCode
	}
	if maxPlayers <= 0 {
		maxPlayers = c.cfg.DefaultMaxPlayers
	}
	if maxPlayers > c.cfg.MaxPlayersLimit {
		maxPlayers = c.cfg.MaxPlayersLimit
	}

	now := c.now().Unix()
	session := c.store.Create(func(id int64) *models.Session {
		return &models.Session{
			ID:               id,
			HostID:           hostID,
			RoomCode:         roomCode,
			Status:           models.SessionCreated,
			CreatedAt:        now,
			QuestionDuration: questionDuration,
			MaxPlayers:       maxPlayers,
			Players:          make(map[int64]*models.Player),
			Questions:        make(map[int]*models.Question),
			Answers:          make(map[int]map[int64]*models.Answer),
		}
	})

	c.emit(models.SessionEvent{
		Type:       models.EventSessionCreated,
		SessionID:  session.ID,
		Timestamp:  now,
		HostID:     hostID,
		MaxPlayers: maxPlayers,
	})

	log.Printf("对局 %d 已创建，主持人: %d，人数上限: %d", session.ID, hostID, maxPlayers)
	return session.ID, nil
}

// JoinSession 玩家凭口令加入对局
func (c *Controller) JoinSession(sessionID, callerID int64, roomCode, displayName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.store.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	if session.RoomCode != roomCode {
		return ErrInvalidRoomCode
	}
	if session.Status != models.SessionCreated {
		return ErrSessionAlreadyActive
	}
	if session.PlayerCount >= session.MaxPlayers {
		return ErrSessionFull
	}

	now := c.now().Unix()
	if existing, ok := session.Players[callerID]; ok {
		if existing.IsActive {
			return ErrPlayerAlreadyJoined
		}
		// 重新激活旧记录
		existing.IsActive = true
		existing.DisplayName = displayName
		existing.JoinTime = now
	} else {
		session.Players[callerID] = &models.Player{
			AccountID:   callerID,
			DisplayName: displayName,
			IsActive:    true,
			JoinTime:    now,
		}
	}

	session.PlayerList = append(session.PlayerList, callerID)
	session.PlayerCount++

	c.emit(models.SessionEvent{
		Type:        models.EventPlayerJoined,
		SessionID:   sessionID,
		Timestamp:   now,
		AccountID:   callerID,
		PlayerCount: session.PlayerCount,
	})

	return nil
}

// StartSession 主持人开始对局
func (c *Controller) StartSession(sessionID, callerID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.store.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	if session.HostID != callerID {
		return ErrUnauthorized
	}
	if session.Status != models.SessionCreated {
		return ErrSessionAlreadyActive
	}

	now := c.now().Unix()
	session.Status = models.SessionActive
	session.StartTime = now

	c.emit(models.SessionEvent{
		Type:      models.EventSessionStarted,
		SessionID: sessionID,
		Timestamp: now,
		HostID:    callerID,
	})

	log.Printf("对局 %d 开始，玩家数: %d", sessionID, session.PlayerCount)
	return nil
}

// StartQuestion 主持人下发题目。重复使用同一序号会覆盖旧题目，
// 这是对主持人的信任假设，核心不做校验。
func (c *Controller) StartQuestion(sessionID, callerID int64, questionIndex int, meta QuestionMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.store.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	if session.HostID != callerID {
		return ErrUnauthorized
	}
	if session.Status != models.SessionActive {
		return ErrSessionNotActive
	}

	// 时限为0表示沿用对局缺省时限；负数一律拒绝，
	// 零时限会让时间加成除零，必须在这里挡住
	timeLimit := meta.TimeLimit
	if timeLimit == 0 {
		timeLimit = session.QuestionDuration
	}
	if timeLimit <= 0 {
		return ErrInvalidDuration
	}

	now := c.now().Unix()
	session.Questions[questionIndex] = &models.Question{
		Index:       questionIndex,
		ContentHash: meta.ContentHash,
		Type:        meta.Type,
		Difficulty:  meta.Difficulty,
		TimeLimit:   timeLimit,
		CorrectHash: meta.CorrectHash,
	}
	session.CurrentQuestionIndex = questionIndex
	session.QuestionStartTime = now

	c.emit(models.SessionEvent{
		Type:        models.EventQuestionStarted,
		SessionID:   sessionID,
		Timestamp:   now,
		HostID:      callerID,
		QuestionIdx: questionIndex,
	})

	return nil
}

// SubmitAnswer 玩家提交答案，返回本次得分
func (c *Controller) SubmitAnswer(sessionID, callerID int64, questionIndex int, answerHash string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.store.Get(sessionID)
	if !ok {
		return 0, ErrSessionNotFound
	}

	if session.Status != models.SessionActive {
		return 0, ErrSessionNotActive
	}
	if questionIndex != session.CurrentQuestionIndex {
		return 0, ErrInvalidQuestionIndex
	}

	question, ok := session.Questions[questionIndex]
	if !ok {
		return 0, ErrInvalidQuestionIndex
	}

	player, ok := session.Players[callerID]
	if !ok || !player.IsActive {
		return 0, ErrPlayerNotInSession
	}

	if _, answered := session.Answers[questionIndex][callerID]; answered {
		return 0, ErrAlreadyAnswered
	}

	if answerHash == "" {
		return 0, ErrInvalidAnswer
	}

	now := c.now().Unix()
	// 超时硬截止，没有宽限
	if now > session.QuestionStartTime+int64(question.TimeLimit) {
		return 0, ErrQuestionNotActive
	}

	isCorrect := answerHash == question.CorrectHash
	responseTime := now - session.QuestionStartTime

	result := CalculatePoints(ScoreInput{
		IsCorrect:    isCorrect,
		ResponseTime: responseTime,
		TimeLimit:    int64(question.TimeLimit),
		Difficulty:   question.Difficulty,
		PriorStreak:  player.CurrentStreak,
	})

	// 更新玩家记录；耗时无论对错都累计
	player.CurrentStreak = result.NewStreak
	if isCorrect {
		player.CorrectAnswers++
		if result.NewStreak > player.BestStreak {
			player.BestStreak = result.NewStreak
		}
	}
	player.Score += result.Points
	player.TotalResponseTime += responseTime

	// 答案写入一次后不再改动
	if session.Answers[questionIndex] == nil {
		session.Answers[questionIndex] = make(map[int64]*models.Answer)
	}
	session.Answers[questionIndex][callerID] = &models.Answer{
		AnswerHash:   answerHash,
		SubmitTime:   now,
		IsCorrect:    isCorrect,
		PointsEarned: result.Points,
	}

	// 实时追踪领先者，只在分数严格超过时更替
	if player.Score > session.WinningScore {
		session.WinnerID = callerID
		session.WinningScore = player.Score
	}

	c.emit(models.SessionEvent{
		Type:         models.EventAnswerSubmitted,
		SessionID:    sessionID,
		Timestamp:    now,
		AccountID:    callerID,
		QuestionIdx:  questionIndex,
		PointsEarned: result.Points,
	})

	return result.Points, nil
}

// EndSession 主持人结束对局，滚入累计统计并返回获胜者ID。
// 统计写入失败时对局保持进行中，状态与统计不会只更新一半。
func (c *Controller) EndSession(sessionID, callerID int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.store.Get(sessionID)
	if !ok {
		return 0, ErrSessionNotFound
	}

	if session.HostID != callerID {
		return 0, ErrUnauthorized
	}
	if session.Status != models.SessionActive {
		return 0, ErrSessionNotActive
	}

	now := c.now().Unix()

	// 按加入顺序生成单局结果
	results := make([]models.SessionResult, 0, len(session.PlayerList))
	for _, accountID := range session.PlayerList {
		player := session.Players[accountID]
		if player == nil || !player.IsActive {
			continue
		}
		results = append(results, models.SessionResult{
			SessionID:      sessionID,
			AccountID:      accountID,
			DisplayName:    player.DisplayName,
			Score:          player.Score,
			CorrectAnswers: player.CorrectAnswers,
			BestStreak:     player.BestStreak,
			IsWinner:       accountID == session.WinnerID && session.WinningScore > 0,
		})
	}

	session.EndTime = now
	if c.stats != nil {
		if err := c.stats.ApplySessionEnd(session, results); err != nil {
			session.EndTime = 0
			log.Printf("对局 %d 结算失败: %v", sessionID, err)
			return 0, err
		}
	}

	// 结算成功后才切换状态
	session.Status = models.SessionCompleted

	c.emit(models.SessionEvent{
		Type:         models.EventSessionEnded,
		SessionID:    sessionID,
		Timestamp:    now,
		WinnerID:     session.WinnerID,
		WinningScore: session.WinningScore,
		TotalPlayers: session.PlayerCount,
	})

	log.Printf("对局 %d 结束，获胜者: %d，分数: %d", sessionID, session.WinnerID, session.WinningScore)
	return session.WinnerID, nil
}

// GetWinner 查询对局当前的领先者及其分数
func (c *Controller) GetWinner(sessionID int64) (int64, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.store.Get(sessionID)
	if !ok {
		return 0, 0, ErrSessionNotFound
	}
	return session.WinnerID, session.WinningScore, nil
}

// GetPlayerScore 查询玩家在对局内的当前得分
func (c *Controller) GetPlayerScore(sessionID, accountID int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.store.Get(sessionID)
	if !ok {
		return 0, ErrSessionNotFound
	}

	player, ok := session.Players[accountID]
	if !ok || !player.IsActive {
		return 0, ErrPlayerNotInSession
	}
	return player.Score, nil
}

// GetPlayerStats 查询玩家的跨对局累计统计
func (c *Controller) GetPlayerStats(accountID int64) (*models.PlayerStats, error) {
	if c.stats == nil {
		return &models.PlayerStats{AccountID: accountID}, nil
	}
	return c.stats.GetPlayerStats(accountID)
}

// GetLeaderboard 生成单局排行榜。每次调用都从玩家记录重新计算，
// 按分数降序排列，同分按加入顺序稳定排序。
func (c *Controller) GetLeaderboard(sessionID int64) ([]models.LeaderboardRow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.store.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	rows := make([]models.LeaderboardRow, 0, len(session.PlayerList))
	for _, accountID := range session.PlayerList {
		player := session.Players[accountID]
		if player == nil || !player.IsActive {
			continue
		}
		rows = append(rows, models.LeaderboardRow{
			AccountID:   accountID,
			DisplayName: player.DisplayName,
			Score:       player.Score,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score > rows[j].Score
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	return rows, nil
}

// GetSessionInfo 查询对局概要
func (c *Controller) GetSessionInfo(sessionID int64) (models.SessionInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.store.Get(sessionID)
	if !ok {
		return models.SessionInfo{}, ErrSessionNotFound
	}
	return session.Info(), nil
}

// ListSessions 按状态列出对局概要，供大厅与匹配服务使用
func (c *Controller) ListSessions(status models.SessionStatus) []models.SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	sessions := c.store.List(status)
	infos := make([]models.SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.Info())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// emit 发送事件，sink缺失时静默丢弃
func (c *Controller) emit(event models.SessionEvent) {
	if c.sink != nil {
		c.sink.Emit(event)
	}
}
