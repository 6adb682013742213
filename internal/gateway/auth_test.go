package gateway

import (
	"sync"
	"testing"
	"time"

	"github.com/jacl-coder/TriviaStorm-Server/config"
)

func newTestAuthHandler() *AuthHandler {
	return NewAuthHandler(&config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenTTLHours: 1,
	})
}

func TestIssueAndValidateToken(t *testing.T) {
	h := newTestAuthHandler()

	token, err := h.issueToken(42, "alice")
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}

	accountID, username, ok := h.ValidateToken(token)
	if !ok {
		t.Fatal("有效令牌验证失败")
	}
	if accountID != 42 || username != "alice" {
		t.Errorf("令牌负载 = %d/%s, 期望 42/alice", accountID, username)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	h := newTestAuthHandler()

	if _, _, ok := h.ValidateToken("not-a-jwt"); ok {
		t.Error("非法令牌不应通过验证")
	}
	if _, _, ok := h.ValidateToken(""); ok {
		t.Error("空令牌不应通过验证")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	h := newTestAuthHandler()
	other := NewAuthHandler(&config.AuthConfig{
		JWTSecret:     "other-secret",
		TokenTTLHours: 1,
	})

	token, err := other.issueToken(42, "alice")
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}

	if _, _, ok := h.ValidateToken(token); ok {
		t.Error("其他密钥签发的令牌不应通过验证")
	}
}

func TestRevokedTokenRejected(t *testing.T) {
	h := newTestAuthHandler()

	token, err := h.issueToken(42, "alice")
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}

	h.revokeToken(token)

	if _, _, ok := h.ValidateToken(token); ok {
		t.Error("已吊销的令牌不应通过验证")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	h := newTestAuthHandler()
	h.tokenTTL = -time.Minute

	token, err := h.issueToken(42, "alice")
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}

	if _, _, ok := h.ValidateToken(token); ok {
		t.Error("过期令牌不应通过验证")
	}
}

func TestConcurrentRevocation(t *testing.T) {
	h := newTestAuthHandler()

	tokens := make([]string, 16)
	for i := range tokens {
		token, err := h.issueToken(int64(i+1), "player")
		if err != nil {
			t.Fatalf("签发令牌失败: %v", err)
		}
		tokens[i] = token
	}

	// 并发吊销与验证不应破坏吊销列表
	var wg sync.WaitGroup
	for _, token := range tokens {
		wg.Add(2)
		go func(tok string) {
			defer wg.Done()
			h.revokeToken(tok)
		}(token)
		go func(tok string) {
			defer wg.Done()
			h.ValidateToken(tok)
		}(token)
	}
	wg.Wait()

	for i, token := range tokens {
		if _, _, ok := h.ValidateToken(token); ok {
			t.Errorf("令牌 %d 吊销后仍通过验证", i)
		}
	}
}

func TestHashPasswordDeterministic(t *testing.T) {
	if hashPassword("secret") != hashPassword("secret") {
		t.Error("同一密码哈希应一致")
	}
	if hashPassword("secret") == hashPassword("other") {
		t.Error("不同密码哈希不应相同")
	}
}
