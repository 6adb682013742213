// websocket.go

package trivia

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jacl-coder/TriviaStorm-Server/internal/models"
)

const (
	// 写入超时时间
	writeWait = 10 * time.Second

	// 读取超时时间
	pongWait = 60 * time.Second

	// 发送 ping 的间隔时间
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 64 * 1024 // 64KB
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 允许所有跨域请求
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message 客户端消息结构
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// subscribePayload 订阅消息载荷
type subscribePayload struct {
	SessionID int64 `json:"session_id"`
}

// EventConn 事件订阅连接
type EventConn struct {
	ID         string
	AccountID  int64
	SessionID  int64 // 0 表示订阅全部对局
	LastActive time.Time

	Send chan []byte
}

// EventHub 对局事件广播中心，实现 EventSink。
// 发送永不阻塞，通道满时直接丢弃该订阅者的这条事件。
type EventHub struct {
	connections map[string]*EventConn
	connMutex   sync.RWMutex
}

// NewEventHub 创建事件广播中心
func NewEventHub() *EventHub {
	return &EventHub{
		connections: make(map[string]*EventConn),
	}
}

// Emit 广播一条对局事件
func (h *EventHub) Emit(event models.SessionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("序列化对局事件失败: %v", err)
		return
	}

	h.connMutex.RLock()
	defer h.connMutex.RUnlock()

	for _, conn := range h.connections {
		if conn.SessionID != 0 && conn.SessionID != event.SessionID {
			continue
		}
		select {
		case conn.Send <- data:
			// 消息已发送
		default:
			// 通道已满，跳过
		}
	}
}

// HandleConnection 处理WebSocket订阅连接
func (h *EventHub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	// 身份由网关校验后通过头部注入
	accountIDStr := r.Header.Get("X-Account-ID")
	if accountIDStr == "" {
		accountIDStr = r.URL.Query().Get("account_id")
	}
	if accountIDStr == "" {
		http.Error(w, "未授权", http.StatusUnauthorized)
		return
	}

	// 可选的初始订阅对局
	var sessionID int64
	if sidStr := r.URL.Query().Get("session_id"); sidStr != "" {
		sessionID, _ = strconv.ParseInt(sidStr, 10, 64)
	}

	// 升级HTTP连接为WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket升级失败: %v", err)
		return
	}

	eventConn := &EventConn{
		ID:         uuid.New().String(),
		AccountID:  parseInt64(accountIDStr),
		SessionID:  sessionID,
		LastActive: time.Now(),
		Send:       make(chan []byte, 256),
	}

	h.connMutex.Lock()
	h.connections[eventConn.ID] = eventConn
	h.connMutex.Unlock()

	log.Printf("观察者 %s 已连接，订阅对局: %d", accountIDStr, sessionID)

	// 启动读写协程
	go h.readPump(conn, eventConn)
	go h.writePump(conn, eventConn)
}

// readPump 从WebSocket读取订阅指令
func (h *EventHub) readPump(conn *websocket.Conn, ec *EventConn) {
	defer func() {
		h.closeConnection(ec)
		conn.Close()
	}()

	// 设置读取参数
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket错误: %v", err)
			}
			break
		}

		ec.LastActive = time.Now()
		h.handleMessage(ec, message)
	}
}

// writePump 向WebSocket写入事件
func (h *EventHub) writePump(conn *websocket.Conn, ec *EventConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-ec.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理订阅指令
func (h *EventHub) handleMessage(ec *EventConn, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("解析订阅消息失败: %v", err)
		return
	}

	switch msg.Type {
	case "subscribe":
		var payload subscribePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		h.connMutex.Lock()
		ec.SessionID = payload.SessionID
		h.connMutex.Unlock()
	case "unsubscribe":
		h.connMutex.Lock()
		ec.SessionID = 0
		h.connMutex.Unlock()
	default:
		// 未知消息类型直接忽略
	}
}

// closeConnection 关闭并移除连接
func (h *EventHub) closeConnection(ec *EventConn) {
	h.connMutex.Lock()
	defer h.connMutex.Unlock()

	if _, ok := h.connections[ec.ID]; ok {
		delete(h.connections, ec.ID)
		close(ec.Send)
	}
}

// CloseAll 关闭全部连接
func (h *EventHub) CloseAll() {
	h.connMutex.Lock()
	defer h.connMutex.Unlock()

	for id, conn := range h.connections {
		delete(h.connections, id)
		close(conn.Send)
	}
}

// parseInt64 解析int64，失败返回0
func parseInt64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
