package match

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
)

// MatchHandler 匹配处理器
type MatchHandler struct {
	service *MatchService
}

// NewMatchHandler 创建匹配处理器
func NewMatchHandler(service *MatchService) *MatchHandler {
	return &MatchHandler{
		service: service,
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *MatchHandler) RegisterHandlers(mux *http.ServeMux) {
	// 健康检查端点
	mux.HandleFunc("/health", h.handleHealth)

	// 匹配相关端点
	mux.HandleFunc("/queue/join", h.handleJoinQueue)
	mux.HandleFunc("/queue/leave", h.handleLeaveQueue)
	mux.HandleFunc("/queue/status", h.handleQueueStatus)
	mux.HandleFunc("/queue/result", h.handleMatchResult)
}

// handleHealth 处理健康检查请求
func (h *MatchHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	// 检查服务状态
	if h.service == nil {
		http.Error(w, "服务未初始化", http.StatusServiceUnavailable)
		return
	}

	// 返回健康状态
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// 匹配请求
type joinQueueRequest struct {
	DisplayName string `json:"display_name"`
}

// 匹配响应
type matchResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// 匹配状态响应
type queueStatusResponse struct {
	QueueLength int `json:"queue_length"`
}

// 匹配结果响应
type matchResultResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *MatchResult `json:"data,omitempty"`
}

// accountFromRequest 从网关注入的头部读取账号标识
func accountFromRequest(r *http.Request) int64 {
	idStr := r.Header.Get("X-Account-ID")
	if idStr == "" {
		idStr = r.URL.Query().Get("account_id")
	}
	accountID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || accountID <= 0 {
		return 0
	}
	return accountID
}

// handleJoinQueue 处理加入匹配队列请求
func (h *MatchHandler) handleJoinQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}

	accountID := accountFromRequest(r)
	if accountID == 0 {
		http.Error(w, "缺少账号标识", http.StatusBadRequest)
		return
	}

	// 解析请求
	var req joinQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "无效的请求格式", http.StatusBadRequest)
		return
	}
	if req.DisplayName == "" {
		http.Error(w, "缺少必要参数", http.StatusBadRequest)
		return
	}

	// 添加到匹配队列
	added := h.service.AddToQueue(accountID, req.DisplayName)

	resp := matchResponse{
		Success: added,
		Message: "已加入匹配队列",
	}
	if !added {
		resp.Message = "玩家已在匹配队列中"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("编码响应失败: %v", err)
	}
}

// handleLeaveQueue 处理离开匹配队列请求
func (h *MatchHandler) handleLeaveQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "仅支持POST或DELETE方法", http.StatusMethodNotAllowed)
		return
	}

	accountID := accountFromRequest(r)
	if accountID == 0 {
		http.Error(w, "缺少账号标识", http.StatusBadRequest)
		return
	}

	// 从队列移除
	success := h.service.RemoveFromQueue(accountID)

	resp := matchResponse{
		Success: success,
		Message: "已离开匹配队列",
	}
	if !success {
		resp.Message = "玩家不在匹配队列中"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("编码响应失败: %v", err)
	}
}

// handleQueueStatus 处理获取队列状态请求
func (h *MatchHandler) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	resp := queueStatusResponse{
		QueueLength: h.service.GetQueueLength(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("编码响应失败: %v", err)
	}
}

// handleMatchResult 处理匹配结果查询
func (h *MatchHandler) handleMatchResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	accountID := accountFromRequest(r)
	if accountID == 0 {
		http.Error(w, "缺少账号标识", http.StatusBadRequest)
		return
	}

	result := h.service.GetMatchResult(accountID)

	resp := matchResultResponse{
		Success: result != nil,
		Message: "查询成功",
		Data:    result,
	}
	if result == nil {
		resp.Message = "暂无匹配结果"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("编码响应失败: %v", err)
	}
}
