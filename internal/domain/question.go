// Package domain defines the core value types shared across the quiz agent.
package domain

import "strings"

// AnswerType classifies the expected shape of a quiz answer. It is declared
// by the question-formulation step and drives answer normalization.
type AnswerType string

const (
	AnswerNumber  AnswerType = "number"
	AnswerBoolean AnswerType = "boolean"
	AnswerText    AnswerType = "text"
	AnswerJSON    AnswerType = "json"
	AnswerBase64  AnswerType = "base64"
	AnswerImage   AnswerType = "image"
	AnswerFile    AnswerType = "file"
	AnswerChart   AnswerType = "chart"
)

// ParseAnswerType maps a free-form type label to an AnswerType,
// defaulting to text for anything unrecognized.
func ParseAnswerType(s string) AnswerType {
	switch AnswerType(strings.ToLower(strings.TrimSpace(s))) {
	case AnswerNumber:
		return AnswerNumber
	case AnswerBoolean:
		return AnswerBoolean
	case AnswerJSON:
		return AnswerJSON
	case AnswerBase64:
		return AnswerBase64
	case AnswerImage:
		return AnswerImage
	case AnswerFile:
		return AnswerFile
	case AnswerChart:
		return AnswerChart
	default:
		return AnswerText
	}
}

// IsFileLike reports whether the answer type resolves to a file artifact
// (submitted as a base64 data URI).
func (t AnswerType) IsFileLike() bool {
	switch t {
	case AnswerBase64, AnswerImage, AnswerFile, AnswerChart:
		return true
	}
	return false
}

// Question is the typed record produced by question formulation for one
// quiz page.
type Question struct {
	Text         string
	Context      string
	AnswerType   AnswerType
	SubmitURL    string
	Instructions string
}
