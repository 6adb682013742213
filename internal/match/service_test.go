package match

import (
	"testing"

	"github.com/jacl-coder/TriviaStorm-Server/config"
	"github.com/jacl-coder/TriviaStorm-Server/internal/models"
	"github.com/jacl-coder/TriviaStorm-Server/internal/trivia"
)

func newTestService() *MatchService {
	cfg := &config.Config{
		Game: config.GameConfig{
			DefaultMaxPlayers:   8,
			MaxPlayersLimit:     64,
			MinQuestionDuration: 5,
			MaxQuestionDuration: 300,
			MatchMinPlayers:     2,
			MatchMaxPlayers:     4,
		},
	}
	controller := trivia.NewController(&cfg.Game, nil, nil)
	return NewMatchService(cfg, controller)
}

func TestQueueJoinLeave(t *testing.T) {
	s := newTestService()

	if !s.AddToQueue(1, "Alice") {
		t.Error("首次入队应成功")
	}
	if s.AddToQueue(1, "Alice") {
		t.Error("重复入队应被拒绝")
	}
	if s.GetQueueLength() != 1 {
		t.Errorf("队列长度 = %d, 期望 1", s.GetQueueLength())
	}

	if !s.RemoveFromQueue(1) {
		t.Error("出队应成功")
	}
	if s.RemoveFromQueue(1) {
		t.Error("重复出队应返回false")
	}
	if s.GetQueueLength() != 0 {
		t.Errorf("队列长度 = %d, 期望 0", s.GetQueueLength())
	}
}

func TestProcessMatchingBelowMinimum(t *testing.T) {
	s := newTestService()

	s.AddToQueue(1, "Alice")
	s.processMatching()

	// 人数不足不成局
	if s.GetQueueLength() != 1 {
		t.Errorf("队列长度 = %d, 期望 1", s.GetQueueLength())
	}
	if s.GetMatchResult(1) != nil {
		t.Error("人数不足时不应产生匹配结果")
	}
}

func TestProcessMatchingCreatesSession(t *testing.T) {
	s := newTestService()

	s.AddToQueue(1, "Alice")
	s.AddToQueue(2, "Bob")
	s.AddToQueue(3, "Carol")
	s.processMatching()

	if s.GetQueueLength() != 0 {
		t.Errorf("匹配后队列长度 = %d, 期望 0", s.GetQueueLength())
	}

	result := s.GetMatchResult(1)
	if result == nil {
		t.Fatal("匹配结果缺失")
	}

	// 队首玩家担任主持人
	if result.HostID != 1 {
		t.Errorf("HostID = %d, 期望 1", result.HostID)
	}
	if len(result.Players) != 3 {
		t.Errorf("玩家数 = %d, 期望 3", len(result.Players))
	}

	// 所有玩家拿到同一个结果
	for _, accountID := range []int64{1, 2, 3} {
		r := s.GetMatchResult(accountID)
		if r == nil || r.SessionID != result.SessionID {
			t.Errorf("玩家 %d 的匹配结果不一致", accountID)
		}
	}

	// 对局已创建且所有玩家已加入
	info, err := s.controller.GetSessionInfo(result.SessionID)
	if err != nil {
		t.Fatalf("查询对局失败: %v", err)
	}
	if info.Status != models.SessionCreated {
		t.Errorf("对局状态 = %s, 期望 created", info.Status)
	}
	if info.PlayerCount != 3 {
		t.Errorf("对局人数 = %d, 期望 3", info.PlayerCount)
	}
}

func TestProcessMatchingRespectsMaxPlayers(t *testing.T) {
	s := newTestService()

	// 入队6人，上限4人，剩2人留在队列
	for i := int64(1); i <= 6; i++ {
		s.AddToQueue(i, "player")
	}
	s.processMatching()

	if s.GetQueueLength() != 2 {
		t.Errorf("匹配后队列长度 = %d, 期望 2", s.GetQueueLength())
	}

	result := s.GetMatchResult(1)
	if result == nil {
		t.Fatal("匹配结果缺失")
	}
	if len(result.Players) != 4 {
		t.Errorf("玩家数 = %d, 期望 4", len(result.Players))
	}
	if s.GetMatchResult(5) != nil {
		t.Error("未匹配的玩家不应有匹配结果")
	}
}
