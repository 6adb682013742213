package trivia

import (
	"errors"
	"testing"
	"time"

	"github.com/jacl-coder/TriviaStorm-Server/config"
	"github.com/jacl-coder/TriviaStorm-Server/internal/models"
)

// fakeClock 可推进的测试时钟
type fakeClock struct {
	current int64
}

func (f *fakeClock) Now() time.Time {
	return time.Unix(f.current, 0)
}

func (f *fakeClock) Advance(seconds int64) {
	f.current += seconds
}

// fakeStatsStore 内存结算存储，复刻滚入语义
type fakeStatsStore struct {
	stats    map[int64]*models.PlayerStats
	applied  int
	failNext bool
}

func newFakeStatsStore() *fakeStatsStore {
	return &fakeStatsStore{stats: make(map[int64]*models.PlayerStats)}
}

func (f *fakeStatsStore) ApplySessionEnd(session *models.Session, results []models.SessionResult) error {
	if f.failNext {
		f.failNext = false
		return errors.New("结算存储不可用")
	}

	for _, r := range results {
		s, ok := f.stats[r.AccountID]
		if !ok {
			s = &models.PlayerStats{AccountID: r.AccountID}
			f.stats[r.AccountID] = s
		}
		s.GamesPlayed++
		s.TotalScore += r.Score
		if r.Score > s.BestScore {
			s.BestScore = r.Score
		}
		s.TotalCorrectAnswers += r.CorrectAnswers
		if r.BestStreak > s.LongestStreak {
			s.LongestStreak = r.BestStreak
		}
		if r.IsWinner {
			s.TotalWins++
		}
	}
	f.applied++
	return nil
}

func (f *fakeStatsStore) GetPlayerStats(accountID int64) (*models.PlayerStats, error) {
	if s, ok := f.stats[accountID]; ok {
		copied := *s
		return &copied, nil
	}
	return &models.PlayerStats{AccountID: accountID}, nil
}

// fakeSink 收集事件
type fakeSink struct {
	events []models.SessionEvent
}

func (f *fakeSink) Emit(event models.SessionEvent) {
	f.events = append(f.events, event)
}

func testGameConfig() *config.GameConfig {
	return &config.GameConfig{
		DefaultMaxPlayers:   8,
		MaxPlayersLimit:     64,
		MinQuestionDuration: 1,
		MaxQuestionDuration: 300,
		MatchMinPlayers:     2,
		MatchMaxPlayers:     8,
	}
}

func newTestController() (*Controller, *fakeStatsStore, *fakeSink, *fakeClock) {
	stats := newFakeStatsStore()
	sink := &fakeSink{}
	clock := &fakeClock{current: 1_700_000_000}

	c := NewController(testGameConfig(), stats, sink)
	c.now = clock.Now
	return c, stats, sink, clock
}

const (
	hostID    = int64(101)
	playerA   = int64(201)
	playerB   = int64(202)
	playerC   = int64(203)
	roomCode  = "storm-42"
	wrongCode = "storm-43"
)

// hardQuestion 困难题，正确答案哈希固定
func hardQuestion(timeLimit int) QuestionMeta {
	return QuestionMeta{
		ContentHash: "q-content",
		Type:        "single_choice",
		Difficulty:  models.DifficultyHard,
		TimeLimit:   timeLimit,
		CorrectHash: "correct",
	}
}

func TestCreateSession(t *testing.T) {
	c, _, _, _ := newTestController()

	id1, err := c.CreateSession(hostID, roomCode, 4, 30)
	if err != nil {
		t.Fatalf("CreateSession失败: %v", err)
	}
	id2, err := c.CreateSession(hostID, roomCode, 4, 30)
	if err != nil {
		t.Fatalf("CreateSession失败: %v", err)
	}
	if id2 != id1+1 {
		t.Errorf("对局ID未顺序分配: %d, %d", id1, id2)
	}

	info, err := c.GetSessionInfo(id1)
	if err != nil {
		t.Fatalf("GetSessionInfo失败: %v", err)
	}
	if info.Status != models.SessionCreated || info.MaxPlayers != 4 || info.PlayerCount != 0 {
		t.Errorf("新对局初始状态不正确: %+v", info)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	c, _, _, _ := newTestController()

	if _, err := c.CreateSession(hostID, roomCode, 4, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("时限为0应返回ErrInvalidDuration, 实际: %v", err)
	}
	if _, err := c.CreateSession(hostID, roomCode, 4, 9999); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("时限超上限应返回ErrInvalidDuration, 实际: %v", err)
	}
	if _, err := c.CreateSession(hostID, "", 4, 30); !errors.Is(err, ErrInvalidRoomCode) {
		t.Errorf("空口令应返回ErrInvalidRoomCode, 实际: %v", err)
	}

	// 人数未指定时使用缺省值
	id, err := c.CreateSession(hostID, roomCode, 0, 30)
	if err != nil {
		t.Fatalf("CreateSession失败: %v", err)
	}
	info, _ := c.GetSessionInfo(id)
	if info.MaxPlayers != testGameConfig().DefaultMaxPlayers {
		t.Errorf("MaxPlayers = %d, 期望缺省值 %d", info.MaxPlayers, testGameConfig().DefaultMaxPlayers)
	}
}

func TestJoinSession(t *testing.T) {
	c, _, _, _ := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 3, 30)

	if err := c.JoinSession(id+999, playerA, roomCode, "Alice"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("加入不存在的对局应返回ErrSessionNotFound, 实际: %v", err)
	}
	if err := c.JoinSession(id, playerA, wrongCode, "Alice"); !errors.Is(err, ErrInvalidRoomCode) {
		t.Errorf("口令错误应返回ErrInvalidRoomCode, 实际: %v", err)
	}

	if err := c.JoinSession(id, playerA, roomCode, "Alice"); err != nil {
		t.Fatalf("加入失败: %v", err)
	}
	if err := c.JoinSession(id, playerA, roomCode, "Alice"); !errors.Is(err, ErrPlayerAlreadyJoined) {
		t.Errorf("重复加入应返回ErrPlayerAlreadyJoined, 实际: %v", err)
	}

	info, _ := c.GetSessionInfo(id)
	if info.PlayerCount != 1 {
		t.Errorf("PlayerCount = %d, 期望 1", info.PlayerCount)
	}

	// 开始后不允许加入
	if err := c.StartSession(id, hostID); err != nil {
		t.Fatalf("StartSession失败: %v", err)
	}
	if err := c.JoinSession(id, playerB, roomCode, "Bob"); !errors.Is(err, ErrSessionAlreadyActive) {
		t.Errorf("开始后加入应返回ErrSessionAlreadyActive, 实际: %v", err)
	}
}

func TestJoinSessionCapacity(t *testing.T) {
	c, _, _, _ := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 2, 30)

	if err := c.JoinSession(id, playerA, roomCode, "Alice"); err != nil {
		t.Fatalf("第一个玩家加入失败: %v", err)
	}
	// player_count == maxPlayers-1 时仍可加入
	if err := c.JoinSession(id, playerB, roomCode, "Bob"); err != nil {
		t.Fatalf("最后一个空位加入失败: %v", err)
	}
	// 满员后拒绝
	if err := c.JoinSession(id, playerC, roomCode, "Carol"); !errors.Is(err, ErrSessionFull) {
		t.Errorf("满员加入应返回ErrSessionFull, 实际: %v", err)
	}

	info, _ := c.GetSessionInfo(id)
	if info.PlayerCount != 2 {
		t.Errorf("PlayerCount = %d, 期望 2", info.PlayerCount)
	}

	// 排行榜应恰好包含两名玩家，人数与名单一致
	rows, _ := c.GetLeaderboard(id)
	if len(rows) != info.PlayerCount {
		t.Errorf("排行榜人数 %d 与player_count %d 不一致", len(rows), info.PlayerCount)
	}
	seen := make(map[int64]bool)
	for _, row := range rows {
		if seen[row.AccountID] {
			t.Errorf("账号 %d 在名单中出现两次", row.AccountID)
		}
		seen[row.AccountID] = true
	}
}

func TestStartSessionAuthorization(t *testing.T) {
	c, _, _, _ := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 4, 30)

	if err := c.StartSession(id, playerA); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("非主持人开始应返回ErrUnauthorized, 实际: %v", err)
	}
	if err := c.StartSession(id, hostID); err != nil {
		t.Fatalf("StartSession失败: %v", err)
	}
	if err := c.StartSession(id, hostID); !errors.Is(err, ErrSessionAlreadyActive) {
		t.Errorf("重复开始应返回ErrSessionAlreadyActive, 实际: %v", err)
	}
}

func TestStartQuestion(t *testing.T) {
	c, _, _, _ := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 4, 30)

	if err := c.StartQuestion(id, hostID, 0, hardQuestion(20)); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("未开始下发题目应返回ErrSessionNotActive, 实际: %v", err)
	}

	c.StartSession(id, hostID)

	if err := c.StartQuestion(id, playerA, 0, hardQuestion(20)); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("非主持人下发应返回ErrUnauthorized, 实际: %v", err)
	}
	if err := c.StartQuestion(id, hostID, 0, hardQuestion(-5)); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("负时限应返回ErrInvalidDuration, 实际: %v", err)
	}
	if err := c.StartQuestion(id, hostID, 0, hardQuestion(20)); err != nil {
		t.Fatalf("StartQuestion失败: %v", err)
	}

	info, _ := c.GetSessionInfo(id)
	if info.CurrentQuestionIndex != 0 {
		t.Errorf("CurrentQuestionIndex = %d, 期望 0", info.CurrentQuestionIndex)
	}
}

func TestStartQuestionInheritsSessionDuration(t *testing.T) {
	c, _, _, clock := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 4, 30)
	c.JoinSession(id, playerA, roomCode, "Alice")
	c.StartSession(id, hostID)

	// 题目时限为0时沿用对局缺省时限30秒
	if err := c.StartQuestion(id, hostID, 0, hardQuestion(0)); err != nil {
		t.Fatalf("StartQuestion失败: %v", err)
	}

	clock.Advance(30)
	if _, err := c.SubmitAnswer(id, playerA, 0, "correct"); err != nil {
		t.Errorf("时限边界内提交应成功, 实际: %v", err)
	}
}

func TestSubmitAnswer(t *testing.T) {
	c, _, _, clock := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 4, 30)
	c.JoinSession(id, playerA, roomCode, "Alice")
	c.StartSession(id, hostID)
	c.StartQuestion(id, hostID, 0, hardQuestion(30))

	if _, err := c.SubmitAnswer(id, playerA, 1, "correct"); !errors.Is(err, ErrInvalidQuestionIndex) {
		t.Errorf("错误题号应返回ErrInvalidQuestionIndex, 实际: %v", err)
	}
	if _, err := c.SubmitAnswer(id, playerB, 0, "correct"); !errors.Is(err, ErrPlayerNotInSession) {
		t.Errorf("未加入玩家应返回ErrPlayerNotInSession, 实际: %v", err)
	}
	if _, err := c.SubmitAnswer(id, playerA, 0, ""); !errors.Is(err, ErrInvalidAnswer) {
		t.Errorf("空答案应返回ErrInvalidAnswer, 实际: %v", err)
	}

	clock.Advance(5)
	points, err := c.SubmitAnswer(id, playerA, 0, "correct")
	if err != nil {
		t.Fatalf("SubmitAnswer失败: %v", err)
	}
	// (100 + 25*50/30) * 200/100 = 282，首次答对无连对加成
	if points != 282 {
		t.Errorf("points = %d, 期望 282", points)
	}

	// 重复提交被拒绝且分数不变
	if _, err := c.SubmitAnswer(id, playerA, 0, "other"); !errors.Is(err, ErrAlreadyAnswered) {
		t.Errorf("重复提交应返回ErrAlreadyAnswered, 实际: %v", err)
	}
	score, _ := c.GetPlayerScore(id, playerA)
	if score != 282 {
		t.Errorf("重复提交后分数被改动: %d", score)
	}
}

func TestSubmitAnswerExpiry(t *testing.T) {
	c, _, _, clock := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 4, 30)
	c.JoinSession(id, playerA, roomCode, "Alice")
	c.StartSession(id, hostID)
	c.StartQuestion(id, hostID, 0, hardQuestion(30))

	// 超时1秒，硬截止
	clock.Advance(31)
	if _, err := c.SubmitAnswer(id, playerA, 0, "correct"); !errors.Is(err, ErrQuestionNotActive) {
		t.Errorf("超时提交应返回ErrQuestionNotActive, 实际: %v", err)
	}
}

func TestStreakTracking(t *testing.T) {
	c, _, _, clock := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 4, 30)
	c.JoinSession(id, playerA, roomCode, "Alice")
	c.StartSession(id, hostID)

	easy := QuestionMeta{
		ContentHash: "q",
		Type:        "single_choice",
		Difficulty:  models.DifficultyEasy,
		TimeLimit:   10,
		CorrectHash: "correct",
	}

	// 第一题压线答对: 150分无连对加成... 压线时间加成为0，应得100
	c.StartQuestion(id, hostID, 0, easy)
	clock.Advance(10)
	p1, _ := c.SubmitAnswer(id, playerA, 0, "correct")
	if p1 != 100 {
		t.Errorf("第一题得分 = %d, 期望 100", p1)
	}

	// 第二题压线答对: 连对2，100 + 20
	c.StartQuestion(id, hostID, 1, easy)
	clock.Advance(10)
	p2, _ := c.SubmitAnswer(id, playerA, 1, "correct")
	if p2 != 120 {
		t.Errorf("第二题得分 = %d, 期望 120", p2)
	}

	// 第三题答错: 连对清零
	c.StartQuestion(id, hostID, 2, easy)
	clock.Advance(10)
	p3, _ := c.SubmitAnswer(id, playerA, 2, "wrong")
	if p3 != 0 {
		t.Errorf("答错得分 = %d, 期望 0", p3)
	}

	// 第四题答对: 连对重新从1开始，无加成
	c.StartQuestion(id, hostID, 3, easy)
	clock.Advance(10)
	p4, _ := c.SubmitAnswer(id, playerA, 3, "correct")
	if p4 != 100 {
		t.Errorf("清零后得分 = %d, 期望 100", p4)
	}
}

func TestIncrementalWinnerTracking(t *testing.T) {
	c, _, _, clock := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 4, 30)
	c.JoinSession(id, playerA, roomCode, "Alice")
	c.JoinSession(id, playerB, roomCode, "Bob")
	c.StartSession(id, hostID)

	easy := QuestionMeta{
		ContentHash: "q",
		Type:        "single_choice",
		Difficulty:  models.DifficultyEasy,
		TimeLimit:   10,
		CorrectHash: "correct",
	}

	c.StartQuestion(id, hostID, 0, easy)
	clock.Advance(10)
	c.SubmitAnswer(id, playerA, 0, "correct") // A: 100

	winner, score, _ := c.GetWinner(id)
	if winner != playerA || score != 100 {
		t.Errorf("winner = %d/%d, 期望 %d/100", winner, score, playerA)
	}

	// B同分不更替领先者
	c.SubmitAnswer(id, playerB, 0, "correct") // B: 100
	winner, _, _ = c.GetWinner(id)
	if winner != playerA {
		t.Errorf("同分后winner = %d, 领先者应保持 %d", winner, playerA)
	}

	// B下一题超过A后更替
	c.StartQuestion(id, hostID, 1, easy)
	clock.Advance(10)
	c.SubmitAnswer(id, playerB, 1, "correct") // B: 100+120=220
	winner, score, _ = c.GetWinner(id)
	if winner != playerB || score != 220 {
		t.Errorf("winner = %d/%d, 期望 %d/220", winner, score, playerB)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	c, _, _, clock := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 4, 30)
	c.JoinSession(id, playerA, roomCode, "Alice")
	c.JoinSession(id, playerB, roomCode, "Bob")
	c.JoinSession(id, playerC, roomCode, "Carol")
	c.StartSession(id, hostID)

	easy := QuestionMeta{
		ContentHash: "q",
		Type:        "single_choice",
		Difficulty:  models.DifficultyEasy,
		TimeLimit:   10,
		CorrectHash: "correct",
	}

	// A与B同分，C更高
	c.StartQuestion(id, hostID, 0, easy)
	clock.Advance(10)
	c.SubmitAnswer(id, playerA, 0, "correct") // A: 100
	c.SubmitAnswer(id, playerB, 0, "correct") // B: 100
	c.SubmitAnswer(id, playerC, 0, "correct") // C: 100

	c.StartQuestion(id, hostID, 1, easy)
	clock.Advance(10)
	c.SubmitAnswer(id, playerC, 1, "correct") // C: 220

	rows, err := c.GetLeaderboard(id)
	if err != nil {
		t.Fatalf("GetLeaderboard失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("排行榜人数 = %d, 期望 3", len(rows))
	}

	// C第一；A与B同分，按加入顺序A在前
	if rows[0].AccountID != playerC {
		t.Errorf("第1名 = %d, 期望 %d", rows[0].AccountID, playerC)
	}
	if rows[1].AccountID != playerA || rows[2].AccountID != playerB {
		t.Errorf("同分未按加入顺序排列: %d, %d", rows[1].AccountID, rows[2].AccountID)
	}
	for i, row := range rows {
		if row.Rank != i+1 {
			t.Errorf("Rank = %d, 期望 %d", row.Rank, i+1)
		}
	}
}

func TestEndSession(t *testing.T) {
	c, stats, _, clock := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 4, 30)
	c.JoinSession(id, playerA, roomCode, "Alice")
	c.JoinSession(id, playerB, roomCode, "Bob")
	c.StartSession(id, hostID)

	c.StartQuestion(id, hostID, 0, hardQuestion(30))
	clock.Advance(5)
	c.SubmitAnswer(id, playerA, 0, "correct")

	if _, err := c.EndSession(id, playerA); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("非主持人结束应返回ErrUnauthorized, 实际: %v", err)
	}

	winner, err := c.EndSession(id, hostID)
	if err != nil {
		t.Fatalf("EndSession失败: %v", err)
	}
	if winner != playerA {
		t.Errorf("winner = %d, 期望 %d", winner, playerA)
	}

	info, _ := c.GetSessionInfo(id)
	if info.Status != models.SessionCompleted {
		t.Errorf("结束后状态 = %s, 期望 completed", info.Status)
	}

	// 统计滚入: 两人都+1场，只有A+1胜
	sa, _ := stats.GetPlayerStats(playerA)
	sb, _ := stats.GetPlayerStats(playerB)
	if sa.GamesPlayed != 1 || sb.GamesPlayed != 1 {
		t.Errorf("GamesPlayed = %d/%d, 期望 1/1", sa.GamesPlayed, sb.GamesPlayed)
	}
	if sa.TotalWins != 1 || sb.TotalWins != 0 {
		t.Errorf("TotalWins = %d/%d, 期望 1/0", sa.TotalWins, sb.TotalWins)
	}
	if sa.BestScore != 282 {
		t.Errorf("BestScore = %d, 期望 282", sa.BestScore)
	}

	// 已结束的对局不能再次结束
	if _, err := c.EndSession(id, hostID); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("重复结束应返回ErrSessionNotActive, 实际: %v", err)
	}
}

func TestEndSessionStatsFailure(t *testing.T) {
	c, stats, _, _ := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 4, 30)
	c.JoinSession(id, playerA, roomCode, "Alice")
	c.StartSession(id, hostID)

	// 结算失败时对局保持进行中，统计不滚入
	stats.failNext = true
	if _, err := c.EndSession(id, hostID); err == nil {
		t.Fatal("结算失败应向调用者返回错误")
	}
	info, _ := c.GetSessionInfo(id)
	if info.Status != models.SessionActive {
		t.Errorf("结算失败后状态 = %s, 应保持 active", info.Status)
	}
	if stats.applied != 0 {
		t.Errorf("结算失败后统计被滚入了 %d 次", stats.applied)
	}

	// 重试成功
	if _, err := c.EndSession(id, hostID); err != nil {
		t.Fatalf("重试EndSession失败: %v", err)
	}
	sa, _ := stats.GetPlayerStats(playerA)
	if sa.GamesPlayed != 1 {
		t.Errorf("GamesPlayed = %d, 期望 1", sa.GamesPlayed)
	}
}

func TestBestScoreNeverDecreases(t *testing.T) {
	c, stats, _, clock := newTestController()

	easy := QuestionMeta{
		ContentHash: "q",
		Type:        "single_choice",
		Difficulty:  models.DifficultyEasy,
		TimeLimit:   10,
		CorrectHash: "correct",
	}

	// 第一局: A拿高分
	id1, _ := c.CreateSession(hostID, roomCode, 4, 30)
	c.JoinSession(id1, playerA, roomCode, "Alice")
	c.StartSession(id1, hostID)
	c.StartQuestion(id1, hostID, 0, easy)
	clock.Advance(10)
	c.SubmitAnswer(id1, playerA, 0, "correct")
	c.StartQuestion(id1, hostID, 1, easy)
	clock.Advance(10)
	c.SubmitAnswer(id1, playerA, 1, "correct")
	c.EndSession(id1, hostID)

	first, _ := stats.GetPlayerStats(playerA)

	// 第二局: A零分
	id2, _ := c.CreateSession(hostID, roomCode, 4, 30)
	c.JoinSession(id2, playerA, roomCode, "Alice")
	c.StartSession(id2, hostID)
	c.EndSession(id2, hostID)

	second, _ := stats.GetPlayerStats(playerA)
	if second.GamesPlayed != first.GamesPlayed+1 {
		t.Errorf("GamesPlayed = %d, 期望 %d", second.GamesPlayed, first.GamesPlayed+1)
	}
	if second.BestScore < first.BestScore {
		t.Errorf("BestScore下降: %d -> %d", first.BestScore, second.BestScore)
	}
}

func TestEndSessionWithoutScores(t *testing.T) {
	c, stats, _, _ := newTestController()
	id, _ := c.CreateSession(hostID, roomCode, 4, 30)
	c.JoinSession(id, playerA, roomCode, "Alice")
	c.StartSession(id, hostID)

	winner, err := c.EndSession(id, hostID)
	if err != nil {
		t.Fatalf("EndSession失败: %v", err)
	}
	if winner != 0 {
		t.Errorf("无人得分时winner = %d, 期望 0", winner)
	}

	sa, _ := stats.GetPlayerStats(playerA)
	if sa.TotalWins != 0 {
		t.Errorf("无人得分时TotalWins = %d, 期望 0", sa.TotalWins)
	}
	if sa.GamesPlayed != 1 {
		t.Errorf("GamesPlayed = %d, 期望 1", sa.GamesPlayed)
	}
}

func TestEndToEndScenario(t *testing.T) {
	c, stats, sink, clock := newTestController()

	// 创建对局: 上限2人, 缺省时限30秒
	id, err := c.CreateSession(hostID, roomCode, 2, 30)
	if err != nil {
		t.Fatalf("CreateSession失败: %v", err)
	}

	// 两名玩家加入
	if err := c.JoinSession(id, playerA, roomCode, "Alice"); err != nil {
		t.Fatalf("A加入失败: %v", err)
	}
	if err := c.JoinSession(id, playerB, roomCode, "Bob"); err != nil {
		t.Fatalf("B加入失败: %v", err)
	}

	// 开始并下发困难题
	if err := c.StartSession(id, hostID); err != nil {
		t.Fatalf("StartSession失败: %v", err)
	}
	if err := c.StartQuestion(id, hostID, 0, hardQuestion(30)); err != nil {
		t.Fatalf("StartQuestion失败: %v", err)
	}

	// A在5秒时答对: (100 + floor(25*50/30)) * 200/100 = 282
	clock.Advance(5)
	points, err := c.SubmitAnswer(id, playerA, 0, "correct")
	if err != nil {
		t.Fatalf("A提交失败: %v", err)
	}
	if points != 282 {
		t.Errorf("A得分 = %d, 期望 282", points)
	}

	// B在31秒时提交: 超时
	clock.Advance(26)
	if _, err := c.SubmitAnswer(id, playerB, 0, "correct"); !errors.Is(err, ErrQuestionNotActive) {
		t.Errorf("B超时提交应返回ErrQuestionNotActive, 实际: %v", err)
	}

	// 结束: A获胜
	winner, err := c.EndSession(id, hostID)
	if err != nil {
		t.Fatalf("EndSession失败: %v", err)
	}
	if winner != playerA {
		t.Errorf("winner = %d, 期望 %d", winner, playerA)
	}

	sa, _ := stats.GetPlayerStats(playerA)
	if sa.TotalWins != 1 {
		t.Errorf("A的TotalWins = %d, 期望 1", sa.TotalWins)
	}

	// 事件流完整: 创建/加入x2/开始/题目/提交/结束
	wantTypes := []models.EventType{
		models.EventSessionCreated,
		models.EventPlayerJoined,
		models.EventPlayerJoined,
		models.EventSessionStarted,
		models.EventQuestionStarted,
		models.EventAnswerSubmitted,
		models.EventSessionEnded,
	}
	if len(sink.events) != len(wantTypes) {
		t.Fatalf("事件数 = %d, 期望 %d", len(sink.events), len(wantTypes))
	}
	for i, want := range wantTypes {
		if sink.events[i].Type != want {
			t.Errorf("事件[%d] = %s, 期望 %s", i, sink.events[i].Type, want)
		}
	}
}
