package models

import "time"

// Question is a multiple-choice question. Correct is the index into Choices
// used as the answer key; it is never serialized to candidates.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
	Correct int      `json:"correct"`
}

// PublicQuestion is the candidate-facing view of a question, without the key.
type PublicQuestion struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
}

// Assessment is a company's assessment definition: the questions candidates
// answer plus the key used for scoring.
type Assessment struct {
	ID        string     `json:"id"`
	CompanyID string     `json:"companyId"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// PublicQuestions returns the questions stripped of the answer key.
func (a *Assessment) PublicQuestions() []PublicQuestion {
	questions := make([]PublicQuestion, 0, len(a.Questions))
	for _, q := range a.Questions {
		questions = append(questions, PublicQuestion{ID: q.ID, Prompt: q.Prompt, Choices: q.Choices})
	}
	return questions
}

// Score grades the submitted answers as a 0-100 percentage. Unanswered
// questions count as wrong; when the same question is answered twice the
// last answer wins.
func (a *Assessment) Score(answers []Answer) int {
	if len(a.Questions) == 0 {
		return 0
	}

	selected := make(map[string]int, len(answers))
	for _, ans := range answers {
		selected[ans.QuestionID] = ans.Choice
	}

	correct := 0
	for _, q := range a.Questions {
		if choice, ok := selected[q.ID]; ok && choice == q.Correct {
			correct++
		}
	}

	return correct * 100 / len(a.Questions)
}
