// Package feedback produces post-assessment coaching replies.
package feedback

import (
	"context"
	"strings"

	"github.com/talentgate/assessment-backend/internal/model"
)

// Brief is what an advisor knows about the candidate's attempt.
type Brief struct {
	Status         model.ResultStatus
	Score          float64
	ElapsedSeconds int
	Answered       int
}

// Advisor answers one chat message.
type Advisor interface {
	Advise(ctx context.Context, brief Brief, message string, history []model.ChatTurn) (string, error)
}

// Topic is the intent detected in a candidate's message.
type Topic string

const (
	TopicImprove     Topic = "improve"
	TopicCareer      Topic = "career"
	TopicNextSteps   Topic = "next-steps"
	TopicPerformance Topic = "performance"
	TopicGeneral     Topic = "general"
)

// topicKeywords is checked in order; the first topic with a matching keyword wins.
var topicKeywords = []struct {
	topic    Topic
	keywords []string
}{
	{TopicImprove, []string{"improve", "better", "help"}},
	{TopicCareer, []string{"career", "job", "role"}},
	{TopicNextSteps, []string{"next", "step", "what"}},
	{TopicPerformance, []string{"score", "performance", "result"}},
}

// Classify returns the topic of message.
func Classify(message string) Topic {
	lower := strings.ToLower(message)
	for _, tk := range topicKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(lower, kw) {
				return tk.topic
			}
		}
	}
	return TopicGeneral
}
