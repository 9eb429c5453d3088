package model

// ChatTurn is one message in the feedback conversation.
type ChatTurn struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required,max=4000"`
}

// FeedbackChatRequest is the payload for the feedback chat endpoint.
type FeedbackChatRequest struct {
	CandidateID string     `json:"candidate_id" binding:"required,uuid"`
	Message     string     `json:"message" binding:"required,min=1,max=2000"`
	History     []ChatTurn `json:"history" binding:"max=50,dive"`
}

// FeedbackChatReply is the advisor's answer.
type FeedbackChatReply struct {
	Reply string `json:"reply"`
}
