// Package tuimsg holds the messages scenes send to the survey model
package tuimsg

import "github.com/aides-simplifiees/simulateur/internal/domain"

// AnswerSubmittedMsg carries the answer typed or picked for a question
type AnswerSubmittedMsg struct {
	QuestionID string
	Value      domain.AnswerValue
}

// SkipQuestionMsg leaves the current question unanswered
type SkipQuestionMsg struct{}

// PreviousQuestionMsg goes back to the question shown before
type PreviousQuestionMsg struct{}
