package model

// ChatRequest is one inbound user turn.
type ChatRequest struct {
	ConversationID int64  `json:"conversation_id" binding:"required"`
	Message        string `json:"message" binding:"required"`
	Sequence       int64  `json:"sequence"` // logical turn order; 0 = assign from clock
}

// ChatResponse carries the assistant reply plus the context it was built from.
type ChatResponse struct {
	Reply   string         `json:"reply"`
	Context *ContextBundle `json:"context,omitempty"`
}

// TelegramUpdate is the subset of the Telegram webhook payload the bot consumes.
type TelegramUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64 `json:"message_id"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}
