package trivia

import (
	"testing"

	"github.com/jacl-coder/TriviaStorm-Server/internal/models"
)

func TestCalculatePoints(t *testing.T) {
	tests := []struct {
		name       string
		in         ScoreInput
		wantPoints int64
		wantStreak int
	}{
		{
			name: "简单题满速答对",
			in: ScoreInput{
				IsCorrect:    true,
				ResponseTime: 0,
				TimeLimit:    10,
				Difficulty:   models.DifficultyEasy,
				PriorStreak:  0,
			},
			// (100+50)*100/100，首次答对连对为1，无连对加成
			wantPoints: 150,
			wantStreak: 1,
		},
		{
			name: "第二次连对压线提交",
			in: ScoreInput{
				IsCorrect:    true,
				ResponseTime: 10,
				TimeLimit:    10,
				Difficulty:   models.DifficultyEasy,
				PriorStreak:  1,
			},
			// 时间加成为0，连对升到2，加成20
			wantPoints: 120,
			wantStreak: 2,
		},
		{
			name: "困难题5秒内答对",
			in: ScoreInput{
				IsCorrect:    true,
				ResponseTime: 5,
				TimeLimit:    30,
				Difficulty:   models.DifficultyHard,
				PriorStreak:  0,
			},
			// (100 + 25*50/30) * 200/100 = 141*2
			wantPoints: 282,
			wantStreak: 1,
		},
		{
			name: "中等题答对带连对",
			in: ScoreInput{
				IsCorrect:    true,
				ResponseTime: 10,
				TimeLimit:    10,
				Difficulty:   models.DifficultyMedium,
				PriorStreak:  3,
			},
			// 100*150/100 + 4*10
			wantPoints: 190,
			wantStreak: 4,
		},
		{
			name: "答错清空连对",
			in: ScoreInput{
				IsCorrect:    false,
				ResponseTime: 10,
				TimeLimit:    10,
				Difficulty:   models.DifficultyHard,
				PriorStreak:  5,
			},
			wantPoints: 0,
			wantStreak: 0,
		},
		{
			name: "答错仍有时间加成",
			in: ScoreInput{
				IsCorrect:    false,
				ResponseTime: 0,
				TimeLimit:    10,
				Difficulty:   models.DifficultyEasy,
				PriorStreak:  2,
			},
			// 基础分为0，时间加成照常参与难度系数计算
			wantPoints: 50,
			wantStreak: 0,
		},
		{
			name: "超过时限无时间加成",
			in: ScoreInput{
				IsCorrect:    true,
				ResponseTime: 15,
				TimeLimit:    10,
				Difficulty:   models.DifficultyEasy,
				PriorStreak:  0,
			},
			wantPoints: 100,
			wantStreak: 1,
		},
		{
			name: "未知难度按简单计算",
			in: ScoreInput{
				IsCorrect:    true,
				ResponseTime: 0,
				TimeLimit:    10,
				Difficulty:   models.Difficulty("legendary"),
				PriorStreak:  0,
			},
			wantPoints: 150,
			wantStreak: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePoints(tt.in)
			if got.Points != tt.wantPoints {
				t.Errorf("Points = %d, 期望 %d", got.Points, tt.wantPoints)
			}
			if got.NewStreak != tt.wantStreak {
				t.Errorf("NewStreak = %d, 期望 %d", got.NewStreak, tt.wantStreak)
			}
		})
	}
}

func TestCalculatePointsDeterministic(t *testing.T) {
	in := ScoreInput{
		IsCorrect:    true,
		ResponseTime: 7,
		TimeLimit:    30,
		Difficulty:   models.DifficultyMedium,
		PriorStreak:  2,
	}

	first := CalculatePoints(in)
	for i := 0; i < 100; i++ {
		if got := CalculatePoints(in); got != first {
			t.Fatalf("相同输入得到不同结果: %+v != %+v", got, first)
		}
	}
}
