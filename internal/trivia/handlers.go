// handlers.go

package trivia

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/jacl-coder/TriviaStorm-Server/internal/models"
)

// SessionHandler 对局操作处理器
type SessionHandler struct {
	controller *Controller
}

// NewSessionHandler 创建对局操作处理器
func NewSessionHandler(controller *Controller) *SessionHandler {
	return &SessionHandler{
		controller: controller,
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *SessionHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/sessions", h.handleListSessions)
	mux.HandleFunc("/sessions/create", h.handleCreateSession)
	mux.HandleFunc("/sessions/join", h.handleJoinSession)
	mux.HandleFunc("/sessions/start", h.handleStartSession)
	mux.HandleFunc("/sessions/question", h.handleStartQuestion)
	mux.HandleFunc("/sessions/answer", h.handleSubmitAnswer)
	mux.HandleFunc("/sessions/end", h.handleEndSession)
	mux.HandleFunc("/sessions/", h.handleSessionQuery)
}

// SessionResponse 对局操作响应
type SessionResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// 创建对局请求
type createSessionRequest struct {
	RoomCode         string `json:"room_code"`
	MaxPlayers       int    `json:"max_players"`
	QuestionDuration int    `json:"question_duration"` // 秒
}

// 加入对局请求
type joinSessionRequest struct {
	SessionID   int64  `json:"session_id"`
	RoomCode    string `json:"room_code"`
	DisplayName string `json:"display_name"`
}

// 对局ID请求
type sessionIDRequest struct {
	SessionID int64 `json:"session_id"`
}

// 下发题目请求
type startQuestionRequest struct {
	SessionID     int64        `json:"session_id"`
	QuestionIndex int          `json:"question_index"`
	Question      QuestionMeta `json:"question"`
}

// 提交答案请求
type submitAnswerRequest struct {
	SessionID     int64  `json:"session_id"`
	QuestionIndex int    `json:"question_index"`
	AnswerHash    string `json:"answer_hash"`
}

// handleCreateSession 处理创建对局请求
func (h *SessionHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendErrorResponse(w, "仅支持POST方法", "", http.StatusMethodNotAllowed)
		return
	}

	callerID, ok := callerFromRequest(r)
	if !ok {
		h.sendErrorResponse(w, "缺少调用者身份", "", http.StatusUnauthorized)
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, "无效的请求格式", "", http.StatusBadRequest)
		return
	}

	sessionID, err := h.controller.CreateSession(callerID, req.RoomCode, req.MaxPlayers, req.QuestionDuration)
	if err != nil {
		h.sendControllerError(w, err)
		return
	}

	h.sendSuccessResponse(w, "对局已创建", map[string]int64{"session_id": sessionID})
}

// handleJoinSession 处理加入对局请求
func (h *SessionHandler) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendErrorResponse(w, "仅支持POST方法", "", http.StatusMethodNotAllowed)
		return
	}

	callerID, ok := callerFromRequest(r)
	if !ok {
		h.sendErrorResponse(w, "缺少调用者身份", "", http.StatusUnauthorized)
		return
	}

	var req joinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, "无效的请求格式", "", http.StatusBadRequest)
		return
	}

	if err := h.controller.JoinSession(req.SessionID, callerID, req.RoomCode, req.DisplayName); err != nil {
		h.sendControllerError(w, err)
		return
	}

	h.sendSuccessResponse(w, "已加入对局", nil)
}

// handleStartSession 处理开始对局请求
func (h *SessionHandler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendErrorResponse(w, "仅支持POST方法", "", http.StatusMethodNotAllowed)
		return
	}

	callerID, ok := callerFromRequest(r)
	if !ok {
		h.sendErrorResponse(w, "缺少调用者身份", "", http.StatusUnauthorized)
		return
	}

	var req sessionIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, "无效的请求格式", "", http.StatusBadRequest)
		return
	}

	if err := h.controller.StartSession(req.SessionID, callerID); err != nil {
		h.sendControllerError(w, err)
		return
	}

	h.sendSuccessResponse(w, "对局已开始", nil)
}

// handleStartQuestion 处理下发题目请求
func (h *SessionHandler) handleStartQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendErrorResponse(w, "仅支持POST方法", "", http.StatusMethodNotAllowed)
		return
	}

	callerID, ok := callerFromRequest(r)
	if !ok {
		h.sendErrorResponse(w, "缺少调用者身份", "", http.StatusUnauthorized)
		return
	}

	var req startQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, "无效的请求格式", "", http.StatusBadRequest)
		return
	}

	if err := h.controller.StartQuestion(req.SessionID, callerID, req.QuestionIndex, req.Question); err != nil {
		h.sendControllerError(w, err)
		return
	}

	h.sendSuccessResponse(w, "题目已下发", nil)
}

// handleSubmitAnswer 处理提交答案请求
func (h *SessionHandler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendErrorResponse(w, "仅支持POST方法", "", http.StatusMethodNotAllowed)
		return
	}

	callerID, ok := callerFromRequest(r)
	if !ok {
		h.sendErrorResponse(w, "缺少调用者身份", "", http.StatusUnauthorized)
		return
	}

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, "无效的请求格式", "", http.StatusBadRequest)
		return
	}

	points, err := h.controller.SubmitAnswer(req.SessionID, callerID, req.QuestionIndex, req.AnswerHash)
	if err != nil {
		h.sendControllerError(w, err)
		return
	}

	h.sendSuccessResponse(w, "答案已提交", map[string]int64{"points_earned": points})
}

// handleEndSession 处理结束对局请求
func (h *SessionHandler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendErrorResponse(w, "仅支持POST方法", "", http.StatusMethodNotAllowed)
		return
	}

	callerID, ok := callerFromRequest(r)
	if !ok {
		h.sendErrorResponse(w, "缺少调用者身份", "", http.StatusUnauthorized)
		return
	}

	var req sessionIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, "无效的请求格式", "", http.StatusBadRequest)
		return
	}

	winnerID, err := h.controller.EndSession(req.SessionID, callerID)
	if err != nil {
		h.sendControllerError(w, err)
		return
	}

	h.sendSuccessResponse(w, "对局已结束", map[string]int64{"winner_id": winnerID})
}

// handleListSessions 处理对局列表查询
func (h *SessionHandler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendErrorResponse(w, "仅支持GET方法", "", http.StatusMethodNotAllowed)
		return
	}

	status := models.SessionStatus(r.URL.Query().Get("status"))
	infos := h.controller.ListSessions(status)

	h.sendSuccessResponse(w, "查询成功", infos)
}

// handleSessionQuery 处理单个对局的只读查询
func (h *SessionHandler) handleSessionQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendErrorResponse(w, "仅支持GET方法", "", http.StatusMethodNotAllowed)
		return
	}

	// 解析URL路径: /sessions/{id}/{view}
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		h.sendErrorResponse(w, "无效的请求路径", "", http.StatusBadRequest)
		return
	}

	sessionID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		h.sendErrorResponse(w, "无效的对局ID", "", http.StatusBadRequest)
		return
	}

	switch parts[1] {
	case "info":
		info, err := h.controller.GetSessionInfo(sessionID)
		if err != nil {
			h.sendControllerError(w, err)
			return
		}
		h.sendSuccessResponse(w, "查询成功", info)
	case "leaderboard":
		rows, err := h.controller.GetLeaderboard(sessionID)
		if err != nil {
			h.sendControllerError(w, err)
			return
		}
		h.sendSuccessResponse(w, "查询成功", rows)
	case "winner":
		winnerID, winningScore, err := h.controller.GetWinner(sessionID)
		if err != nil {
			h.sendControllerError(w, err)
			return
		}
		h.sendSuccessResponse(w, "查询成功", map[string]int64{
			"winner_id":     winnerID,
			"winning_score": winningScore,
		})
	case "score":
		accountID, err := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
		if err != nil {
			h.sendErrorResponse(w, "无效的账号ID", "", http.StatusBadRequest)
			return
		}
		score, err := h.controller.GetPlayerScore(sessionID, accountID)
		if err != nil {
			h.sendControllerError(w, err)
			return
		}
		h.sendSuccessResponse(w, "查询成功", map[string]int64{"score": score})
	default:
		h.sendErrorResponse(w, "未知的请求路径", "", http.StatusNotFound)
	}
}

// sendControllerError 把控制器错误映射为HTTP响应
func (h *SessionHandler) sendControllerError(w http.ResponseWriter, err error) {
	h.sendErrorResponse(w, err.Error(), ErrorCode(err), httpStatusFor(err))
}

// sendSuccessResponse 发送成功响应
func (h *SessionHandler) sendSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	resp := SessionResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("编码响应失败: %v", err)
	}
}

// sendErrorResponse 发送错误响应
func (h *SessionHandler) sendErrorResponse(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := SessionResponse{
		Success: false,
		Message: message,
		Code:    code,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("编码响应失败: %v", err)
	}
}

// httpStatusFor 错误对应的HTTP状态码
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidRoomCode):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidDuration), errors.Is(err, ErrInvalidAnswer), errors.Is(err, ErrInvalidQuestionIndex):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionAlreadyActive), errors.Is(err, ErrSessionNotActive),
		errors.Is(err, ErrSessionFull), errors.Is(err, ErrPlayerAlreadyJoined),
		errors.Is(err, ErrAlreadyAnswered), errors.Is(err, ErrQuestionNotActive),
		errors.Is(err, ErrPlayerNotInSession):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// callerFromRequest 从请求头获取调用者账号。
// 身份由网关完成JWT校验后注入，内部服务信任该头部。
func callerFromRequest(r *http.Request) (int64, bool) {
	v := r.Header.Get("X-Account-ID")
	if v == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
