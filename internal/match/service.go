// service.go

package match

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jacl-coder/TriviaStorm-Server/config"
	"github.com/jacl-coder/TriviaStorm-Server/internal/trivia"
)

// QueueEntry 匹配队列条目
type QueueEntry struct {
	AccountID   int64
	DisplayName string
	EnqueueTime time.Time
}

// MatchResult 匹配结果
type MatchResult struct {
	SessionID int64   `json:"session_id"`
	RoomCode  string  `json:"room_code"`
	HostID    int64   `json:"host_id"`
	Players   []int64 `json:"players"`
	MatchedAt int64   `json:"matched_at"`
}

// MatchService 快速匹配服务
type MatchService struct {
	// 匹配队列，先进先出
	queue      []*QueueEntry
	queueMutex sync.RWMutex

	// 最近一次匹配结果，按账号索引
	results      map[int64]*MatchResult
	resultsMutex sync.RWMutex

	// 答题对局控制器引用
	controller *trivia.Controller

	// 匹配配置
	config *config.Config

	// HTTP服务器
	httpServer *http.Server
	handler    *MatchHandler

	// 控制通道
	shutdown  chan struct{}
	isRunning bool
}

// NewMatchService 创建匹配服务
func NewMatchService(cfg *config.Config, controller *trivia.Controller) *MatchService {
	service := &MatchService{
		queue:      make([]*QueueEntry, 0),
		results:    make(map[int64]*MatchResult),
		controller: controller,
		config:     cfg,
		shutdown:   make(chan struct{}),
	}

	// 创建处理器
	service.handler = NewMatchHandler(service)

	return service
}

// Start 启动匹配服务
func (s *MatchService) Start() error {
	if s.isRunning {
		return fmt.Errorf("匹配服务已经在运行")
	}

	log.Println("匹配服务启动")
	s.isRunning = true

	// 创建HTTP服务器
	mux := http.NewServeMux()
	s.handler.RegisterHandlers(mux)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Server.MatchPort),
		Handler: mux,
	}

	// 启动HTTP服务器
	go func() {
		log.Printf("匹配服务HTTP服务器启动，监听端口: %d", s.config.Server.MatchPort)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("匹配服务HTTP服务器错误: %v", err)
		}
	}()

	// 启动匹配循环
	go s.matchLoop()

	return nil
}

// Stop 停止匹配服务
func (s *MatchService) Stop() {
	if !s.isRunning {
		return
	}

	close(s.shutdown)
	s.isRunning = false

	// 关闭HTTP服务器
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}

	log.Println("匹配服务已停止")
}

// AddToQueue 添加玩家到匹配队列
func (s *MatchService) AddToQueue(accountID int64, displayName string) bool {
	s.queueMutex.Lock()
	defer s.queueMutex.Unlock()

	// 已在队列中则不重复加入
	for _, entry := range s.queue {
		if entry.AccountID == accountID {
			return false
		}
	}

	s.queue = append(s.queue, &QueueEntry{
		AccountID:   accountID,
		DisplayName: displayName,
		EnqueueTime: time.Now(),
	})
	log.Printf("玩家 %d 加入匹配队列", accountID)
	return true
}

// RemoveFromQueue 从匹配队列移除玩家
func (s *MatchService) RemoveFromQueue(accountID int64) bool {
	s.queueMutex.Lock()
	defer s.queueMutex.Unlock()

	for i, entry := range s.queue {
		if entry.AccountID == accountID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			log.Printf("玩家 %d 离开匹配队列", accountID)
			return true
		}
	}

	return false
}

// GetQueueLength 获取队列长度
func (s *MatchService) GetQueueLength() int {
	s.queueMutex.RLock()
	defer s.queueMutex.RUnlock()
	return len(s.queue)
}

// GetMatchResult 获取账号的最近匹配结果
func (s *MatchService) GetMatchResult(accountID int64) *MatchResult {
	s.resultsMutex.RLock()
	defer s.resultsMutex.RUnlock()
	return s.results[accountID]
}

// matchLoop 匹配循环
func (s *MatchService) matchLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processMatching()
		case <-s.shutdown:
			return
		}
	}
}

// processMatching 处理匹配
func (s *MatchService) processMatching() {
	s.queueMutex.Lock()
	defer s.queueMutex.Unlock()

	minPlayers := s.config.Game.MatchMinPlayers
	maxPlayers := s.config.Game.MatchMaxPlayers
	if minPlayers < 2 {
		minPlayers = 2
	}

	// 队列中的玩家不足，跳过
	if len(s.queue) < minPlayers {
		return
	}

	// 按加入顺序取一批玩家，最多取满一局
	count := len(s.queue)
	if count > maxPlayers {
		count = maxPlayers
	}
	matched := s.queue[:count]
	remaining := s.queue[count:]

	// 队首玩家担任主持人，用随机口令创建对局
	host := matched[0]
	roomCode := uuid.New().String()[:8]
	duration := s.config.Game.MinQuestionDuration
	if duration < 30 {
		duration = 30
	}

	sessionID, err := s.controller.CreateSession(host.AccountID, roomCode, count, duration)
	if err != nil {
		log.Printf("创建匹配对局失败: %v", err)
		return
	}

	// 全部玩家加入对局
	players := make([]int64, 0, count)
	for _, entry := range matched {
		if err := s.controller.JoinSession(sessionID, entry.AccountID, roomCode, entry.DisplayName); err != nil {
			log.Printf("玩家 %d 加入匹配对局失败: %v", entry.AccountID, err)
			continue
		}
		players = append(players, entry.AccountID)
	}

	s.queue = remaining

	// 记录匹配结果供玩家查询
	result := &MatchResult{
		SessionID: sessionID,
		RoomCode:  roomCode,
		HostID:    host.AccountID,
		Players:   players,
		MatchedAt: time.Now().Unix(),
	}

	s.resultsMutex.Lock()
	for _, accountID := range players {
		s.results[accountID] = result
	}
	s.resultsMutex.Unlock()

	log.Printf("匹配成功: 对局ID %d, 玩家数 %d, 主持人 %d", sessionID, len(players), host.AccountID)
}
