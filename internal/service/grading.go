package service

import (
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
)

// GradeQuiz 对一次作答评分。纯函数，同样的题目和答案永远得到
// 同样的分数，修数据后可以直接重新评分。
//
// 未作答的题不得分，但分值仍计入总分。总分为 0 时定义得分为 0.00
// 而不是报错。
func GradeQuiz(questions []model.QuizQuestion, answers []model.QuizAnswer) float64 {
	correctChoices := make(map[uint]bool)
	for _, q := range questions {
		for _, c := range q.Choices {
			if c.IsCorrect {
				correctChoices[c.ID] = true
			}
		}
	}

	answered := make(map[uint]uint, len(answers))
	for _, a := range answers {
		answered[a.QuestionID] = a.ChoiceID
	}

	earned := 0
	total := 0
	for _, q := range questions {
		total += q.Points
		if choiceID, ok := answered[q.ID]; ok && correctChoices[choiceID] {
			earned += q.Points
		}
	}

	if total <= 0 {
		return 0.0
	}
	return util.Round2(float64(earned) / float64(total) * 100)
}
