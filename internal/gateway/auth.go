package gateway

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jacl-coder/TriviaStorm-Server/config"
	"github.com/jacl-coder/TriviaStorm-Server/pkg/db"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	jwtSecret []byte
	tokenTTL  time.Duration

	// 吊销列表，Redis可用时写入Redis，内存回退需要加锁
	useRedis  bool
	revokedMu sync.Mutex
	revoked   map[string]time.Time
}

// AccountClaims JWT负载
type AccountClaims struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Token     string `json:"token,omitempty"`
	AccountID int64  `json:"account_id,omitempty"`
	Username  string `json:"username,omitempty"`
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.AuthConfig) *AuthHandler {
	// 检查Redis是否可用
	useRedis := db.RedisClient != nil

	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &AuthHandler{
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  ttl,
		useRedis:  useRedis,
		revoked:   make(map[string]time.Time),
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *AuthHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/validate", h.handleValidate)
	mux.HandleFunc("/auth/logout", h.handleLogout)
}

// handleLogin 处理登录请求
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}

	// 解析请求
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "无效的请求格式", http.StatusBadRequest)
		return
	}

	// 验证用户名和密码
	accountID, err := h.validateCredentials(req.Username, req.Password)
	if err != nil {
		resp := AuthResponse{
			Success: false,
			Message: "用户名或密码错误",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
		return
	}

	// 签发令牌
	token, err := h.issueToken(accountID, req.Username)
	if err != nil {
		http.Error(w, "生成令牌失败", http.StatusInternalServerError)
		return
	}

	// 返回成功响应
	resp := AuthResponse{
		Success:   true,
		Message:   "登录成功",
		Token:     token,
		AccountID: accountID,
		Username:  req.Username,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleRegister 处理注册请求
func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}

	// 解析请求
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "无效的请求格式", http.StatusBadRequest)
		return
	}

	// 验证请求
	if req.Username == "" || req.Password == "" || req.Email == "" {
		http.Error(w, "缺少必要参数", http.StatusBadRequest)
		return
	}

	// 创建账号
	accountID, err := h.createAccount(req.Username, req.Password, req.Email)
	if err != nil {
		resp := AuthResponse{
			Success: false,
			Message: fmt.Sprintf("注册失败: %v", err),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
		return
	}

	// 签发令牌
	token, err := h.issueToken(accountID, req.Username)
	if err != nil {
		http.Error(w, "生成令牌失败", http.StatusInternalServerError)
		return
	}

	// 返回成功响应
	resp := AuthResponse{
		Success:   true,
		Message:   "注册成功",
		Token:     token,
		AccountID: accountID,
		Username:  req.Username,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleValidate 处理令牌验证请求
func (h *AuthHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	token := tokenFromRequest(r)
	if token == "" {
		http.Error(w, "未提供令牌", http.StatusBadRequest)
		return
	}

	accountID, username, ok := h.ValidateToken(token)
	if !ok {
		http.Error(w, "无效或已过期的令牌", http.StatusUnauthorized)
		return
	}

	// 返回成功响应
	resp := AuthResponse{
		Success:   true,
		Message:   "令牌有效",
		AccountID: accountID,
		Username:  username,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleLogout 处理登出请求
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}

	token := tokenFromRequest(r)
	if token == "" {
		http.Error(w, "未提供令牌", http.StatusBadRequest)
		return
	}

	// 吊销令牌
	h.revokeToken(token)

	// 返回成功响应
	resp := AuthResponse{
		Success: true,
		Message: "登出成功",
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// tokenFromRequest 从请求中提取令牌
func tokenFromRequest(r *http.Request) string {
	token := r.Header.Get("Authorization")
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return token
}

// validateCredentials 验证账号凭据
func (h *AuthHandler) validateCredentials(username, password string) (int64, error) {
	// 计算密码哈希
	hashedPassword := hashPassword(password)

	// 查询数据库
	var accountID int64
	err := db.DB.QueryRow("SELECT id FROM accounts WHERE username = $1 AND password = $2", username, hashedPassword).Scan(&accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("用户名或密码错误")
		}
		return 0, fmt.Errorf("数据库查询错误: %w", err)
	}

	return accountID, nil
}

// createAccount 创建账号
func (h *AuthHandler) createAccount(username, password, email string) (int64, error) {
	// 检查用户名是否已存在
	var count int
	err := db.DB.QueryRow("SELECT COUNT(*) FROM accounts WHERE username = $1", username).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("数据库查询错误: %w", err)
	}
	if count > 0 {
		return 0, fmt.Errorf("用户名已存在")
	}

	// 检查邮箱是否已存在
	err = db.DB.QueryRow("SELECT COUNT(*) FROM accounts WHERE email = $1", email).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("数据库查询错误: %w", err)
	}
	if count > 0 {
		return 0, fmt.Errorf("邮箱已被使用")
	}

	// 计算密码哈希
	hashedPassword := hashPassword(password)

	// 插入账号
	var accountID int64
	err = db.DB.QueryRow(
		"INSERT INTO accounts (username, password, email, created_at, updated_at) VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id",
		username, hashedPassword, email,
	).Scan(&accountID)
	if err != nil {
		return 0, fmt.Errorf("创建账号失败: %w", err)
	}

	return accountID, nil
}

// issueToken 签发JWT令牌
func (h *AuthHandler) issueToken(accountID int64, username string) (string, error) {
	now := time.Now()
	claims := AccountClaims{
		AccountID: accountID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", accountID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// parseToken 解析并校验JWT令牌
func (h *AuthHandler) parseToken(tokenString string) (*AccountClaims, error) {
	claims := &AccountClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("不支持的签名算法: %v", t.Header["alg"])
		}
		return h.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("令牌无效")
	}
	return claims, nil
}

// hashPassword 计算密码哈希
func hashPassword(password string) string {
	// 使用SHA-256哈希
	// 在实际应用中，应该使用更安全的哈希算法，如bcrypt
	hash := sha256.Sum256([]byte(password))
	return fmt.Sprintf("%x", hash)
}

// revokeKey 吊销列表键
func revokeKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("revoked:%x", sum[:16])
}

// revokeToken 吊销令牌
func (h *AuthHandler) revokeToken(token string) {
	key := revokeKey(token)

	// 吊销记录保留到令牌自然过期
	ttl := h.tokenTTL
	if claims, err := h.parseToken(token); err == nil && claims.ExpiresAt != nil {
		if remain := time.Until(claims.ExpiresAt.Time); remain > 0 {
			ttl = remain
		}
	}

	if h.useRedis {
		err := db.RedisClient.Set(db.RedisClient.Context(), key, "1", ttl).Err()
		if err == nil {
			return
		}
		// Redis失败时回退到内存存储
	}

	h.revokedMu.Lock()
	h.revoked[key] = time.Now().Add(ttl)
	h.revokedMu.Unlock()
}

// isRevoked 检查令牌是否已吊销
func (h *AuthHandler) isRevoked(token string) bool {
	key := revokeKey(token)

	if h.useRedis {
		exists, err := db.RedisClient.Exists(db.RedisClient.Context(), key).Result()
		if err == nil {
			return exists > 0
		}
		// Redis失败时检查内存存储
	}

	h.revokedMu.Lock()
	defer h.revokedMu.Unlock()

	expiry, ok := h.revoked[key]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(h.revoked, key)
		return false
	}
	return true
}

// ValidateToken 验证令牌（供网关代理使用）
func (h *AuthHandler) ValidateToken(token string) (int64, string, bool) {
	claims, err := h.parseToken(token)
	if err != nil {
		return 0, "", false
	}
	if h.isRevoked(token) {
		return 0, "", false
	}
	return claims.AccountID, claims.Username, true
}
