package service

import (
	"testing"

	"learnhub_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func makeQuestions() []model.QuizQuestion {
	return []model.QuizQuestion{
		{
			BaseModel: model.BaseModel{ID: 1},
			Points:    2,
			Choices: []model.QuizChoice{
				{BaseModel: model.BaseModel{ID: 11}, IsCorrect: true},
				{BaseModel: model.BaseModel{ID: 12}},
			},
		},
		{
			BaseModel: model.BaseModel{ID: 2},
			Points:    2,
			Choices: []model.QuizChoice{
				{BaseModel: model.BaseModel{ID: 21}},
				{BaseModel: model.BaseModel{ID: 22}, IsCorrect: true},
			},
		},
	}
}

func TestGradeQuiz(t *testing.T) {
	questions := makeQuestions()

	t.Run("一半答对得 50 分", func(t *testing.T) {
		answers := []model.QuizAnswer{
			{QuestionID: 1, ChoiceID: 11}, // 对
			{QuestionID: 2, ChoiceID: 21}, // 错
		}
		assert.Equal(t, 50.0, GradeQuiz(questions, answers))
	})

	t.Run("全对得 100 分", func(t *testing.T) {
		answers := []model.QuizAnswer{
			{QuestionID: 1, ChoiceID: 11},
			{QuestionID: 2, ChoiceID: 22},
		}
		assert.Equal(t, 100.0, GradeQuiz(questions, answers))
	})

	t.Run("未作答的题不得分但计入总分", func(t *testing.T) {
		answers := []model.QuizAnswer{
			{QuestionID: 1, ChoiceID: 11},
		}
		assert.Equal(t, 50.0, GradeQuiz(questions, answers))
	})

	t.Run("没有答案得 0 分", func(t *testing.T) {
		assert.Equal(t, 0.0, GradeQuiz(questions, nil))
	})

	t.Run("没有题目时得分定义为 0", func(t *testing.T) {
		assert.Equal(t, 0.0, GradeQuiz(nil, nil))
	})

	t.Run("保留两位小数", func(t *testing.T) {
		three := []model.QuizQuestion{
			{BaseModel: model.BaseModel{ID: 1}, Points: 1, Choices: []model.QuizChoice{{BaseModel: model.BaseModel{ID: 11}, IsCorrect: true}}},
			{BaseModel: model.BaseModel{ID: 2}, Points: 1, Choices: []model.QuizChoice{{BaseModel: model.BaseModel{ID: 21}, IsCorrect: true}}},
			{BaseModel: model.BaseModel{ID: 3}, Points: 1, Choices: []model.QuizChoice{{BaseModel: model.BaseModel{ID: 31}, IsCorrect: true}}},
		}
		answers := []model.QuizAnswer{{QuestionID: 1, ChoiceID: 11}}
		// 1/3 -> 33.33
		assert.Equal(t, 33.33, GradeQuiz(three, answers))
	})

	t.Run("评分是确定性的", func(t *testing.T) {
		answers := []model.QuizAnswer{
			{QuestionID: 1, ChoiceID: 11},
			{QuestionID: 2, ChoiceID: 21},
		}
		first := GradeQuiz(questions, answers)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, GradeQuiz(questions, answers))
		}
	})
}
