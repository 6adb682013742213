// scoring.go

package trivia

import (
	"github.com/jacl-coder/TriviaStorm-Server/internal/models"
)

// 计分常量
const (
	// 答对的基础分
	baseScore = 100
	// 时间加成的满值
	timeBonusMax = 50
	// 连对加成，每级连对加10分
	streakBonusPerLevel = 10
	// 连对加成的起始连对数
	streakBonusThreshold = 2
)

// ScoreInput 单次作答的计分输入
type ScoreInput struct {
	IsCorrect    bool
	ResponseTime int64 // 从题目下发到提交的耗时(秒)
	TimeLimit    int64 // 答题时限(秒)，调用方保证为正
	Difficulty   models.Difficulty
	PriorStreak  int // 提交前的连对数
}

// ScoreResult 单次作答的计分结果
type ScoreResult struct {
	Points    int64 // 本次作答获得的总分
	NewStreak int   // 提交后的连对数
}

// CalculatePoints 计算单次作答得分，纯函数，全部使用整数运算。
//
// 得分 = (基础分 + 时间加成) * 难度系数 / 100 + 连对加成。
// 时间加成与对错无关；连对加成只在答对且连对达到两次后生效。
func CalculatePoints(in ScoreInput) ScoreResult {
	var base int64
	if in.IsCorrect {
		base = baseScore
	}

	var timeBonus int64
	if in.ResponseTime < in.TimeLimit {
		timeBonus = (in.TimeLimit - in.ResponseTime) * timeBonusMax / in.TimeLimit
	}

	points := (base + timeBonus) * in.Difficulty.Multiplier() / 100

	newStreak := 0
	if in.IsCorrect {
		newStreak = in.PriorStreak + 1
		if newStreak >= streakBonusThreshold {
			points += int64(newStreak) * streakBonusPerLevel
		}
	}

	return ScoreResult{
		Points:    points,
		NewStreak: newStreak,
	}
}
