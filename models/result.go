package models

import "time"

// Answer is a candidate's selected choice for a single question.
type Answer struct {
	QuestionID string `json:"questionId"`
	Choice     int    `json:"choice"`
}

// AssessmentResult is the single, immutable record of a completed assessment
// attempt. At most one result ever exists per invitation; it is created once
// on submission and never updated.
type AssessmentResult struct {
	ID           string    `json:"id"`
	InvitationID string    `json:"invitationId"`
	Answers      []Answer  `json:"answers"`
	Score        int       `json:"score"` // percentage, 0-100
	SubmittedAt  time.Time `json:"submittedAt"`
}
