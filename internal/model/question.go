package model

import "strings"

type Question struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

func NewQuestion(raw string) Question {
	return Question{
		Raw:        raw,
		Normalized: strings.Join(strings.Fields(strings.ToLower(raw)), " "),
	}
}

type Record map[string]any
