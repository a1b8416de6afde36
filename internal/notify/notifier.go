package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ChannelFacts 場次與 Fact 畫面更新共用的頻道
const ChannelFacts = "facts"

// ActionReplace 接收端以 payload 重新渲染 target 區塊
const ActionReplace = "replace"

// Message 推送給畫面的更新
type Message struct {
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	Action  string          `json:"action"`
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sent_at"`
}

func NewReplaceMessage(channel, target string, payload interface{}) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		ID:      uuid.New().String(),
		Channel: channel,
		Action:  ActionReplace,
		Target:  target,
		Payload: data,
		SentAt:  time.Now().UTC(),
	}, nil
}

type Notifier interface {
	Publish(ctx context.Context, msg Message) error
}
