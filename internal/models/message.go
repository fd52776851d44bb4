package models

// Message is a validated inbound SMS notification.
// From is carried on the wire as "from" and persisted as from_msisdn.
type Message struct {
	MessageID string  `json:"message_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	TS        string  `json:"ts"`
	Text      *string `json:"text"`
	CreatedAt string  `json:"-"`
}

// WebhookPayload is the POST /webhook body after type checks.
// Fields are tagged for go-playground/validator; text is optional.
type WebhookPayload struct {
	MessageID string  `json:"message_id" validate:"required"`
	From      string  `json:"from" validate:"required,msisdn"`
	To        string  `json:"to" validate:"required,msisdn"`
	TS        string  `json:"ts" validate:"required,endswith=Z"`
	Text      *string `json:"text" validate:"omitempty,max=4096"`
}

// Message converts a validated payload into the domain record.
func (p WebhookPayload) Message() Message {
	return Message{
		MessageID: p.MessageID,
		From:      p.From,
		To:        p.To,
		TS:        p.TS,
		Text:      p.Text,
	}
}

// WebhookResponse is returned for both created and duplicate deliveries.
type WebhookResponse struct {
	Status string `json:"status"`
}

// MessageListResponse is returned by GET /messages.
type MessageListResponse struct {
	Data   []Message `json:"data"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// SenderStats is one row of the top senders table.
type SenderStats struct {
	From  string `json:"from"`
	Count int    `json:"count"`
}

// Stats is returned by GET /stats. First/last timestamps are null on an empty store.
type Stats struct {
	TotalMessages     int           `json:"total_messages"`
	SendersCount      int           `json:"senders_count"`
	MessagesPerSender []SenderStats `json:"messages_per_sender"`
	FirstMessageTS    *string       `json:"first_message_ts"`
	LastMessageTS     *string       `json:"last_message_ts"`
}

// Violation is one entry of a 422 detail list.
type Violation struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Detail any `json:"detail"`
}
