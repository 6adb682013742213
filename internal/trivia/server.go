package trivia

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jacl-coder/TriviaStorm-Server/config"
)

// TriviaServer 答题服务器，承载对局操作接口与事件订阅
type TriviaServer struct {
	config     *config.Config
	controller *Controller
	hub        *EventHub
	httpServer *http.Server

	// 关闭信号
	shutdown  chan struct{}
	isRunning bool
}

// NewTriviaServer 创建答题服务器
func NewTriviaServer(cfg *config.Config) *TriviaServer {
	hub := NewEventHub()
	controller := NewController(&cfg.Game, NewPostgresStatsStore(), hub)

	return &TriviaServer{
		config:     cfg,
		controller: controller,
		hub:        hub,
		shutdown:   make(chan struct{}),
	}
}

// Controller 暴露控制器给同进程内的其他服务（匹配服务）
func (s *TriviaServer) Controller() *Controller {
	return s.controller
}

// Start 启动答题服务器
func (s *TriviaServer) Start() error {
	if s.isRunning {
		return fmt.Errorf("服务器已经在运行")
	}

	// 初始化HTTP服务器
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Server.TriviaPort),
		Handler: s.createHandler(),
	}

	// 启动HTTP服务器
	go func() {
		log.Printf("答题服务器启动，监听端口: %d", s.config.Server.TriviaPort)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP服务器错误: %v", err)
		}
	}()

	s.isRunning = true
	return nil
}

// Stop 停止答题服务器
func (s *TriviaServer) Stop() error {
	if !s.isRunning {
		return nil
	}

	// 发送关闭信号
	close(s.shutdown)

	// 关闭所有订阅连接
	s.hub.CloseAll()

	// 关闭HTTP服务器
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP服务器关闭错误: %w", err)
	}

	s.isRunning = false
	log.Println("答题服务器已停止")
	return nil
}

// createHandler 创建HTTP处理器
func (s *TriviaServer) createHandler() http.Handler {
	mux := http.NewServeMux()

	// 对局操作端点
	handler := NewSessionHandler(s.controller)
	handler.RegisterHandlers(mux)

	// WebSocket 事件订阅端点
	mux.HandleFunc("/ws", s.hub.HandleConnection)

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}
