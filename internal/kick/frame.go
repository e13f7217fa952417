package kick

import (
	"encoding/json"
	"fmt"

	"github.com/yanun0323/errors"

	"github.com/fatih-yavuz/kick-notifier/pkg/exception"
)

// Pusher event tags used by the chat broker.
const (
	eventSubscribe = "pusher:subscribe"
	eventPing      = "pusher:ping"
	eventPong      = "pusher:pong"
	eventChat      = `App\Events\ChatMessageEvent`
)

// FrameKind tags a decoded inbound frame.
type FrameKind uint8

const (
	// FrameOther covers every event tag the client does not act on.
	FrameOther FrameKind = iota
	// FramePong is the broker's reply to a liveness probe.
	FramePong
	// FrameChat carries one chat message.
	FrameChat
)

// ChatMessage is a single decoded chat event. The client keeps no history;
// each value is handed to the consumer callback and discarded.
type ChatMessage struct {
	Username string
	Content  string
}

// Frame is one decoded inbound envelope.
type Frame struct {
	Kind FrameKind
	Chat ChatMessage
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outboundEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type subscribeData struct {
	Auth    string `json:"auth"`
	Channel string `json:"channel"`
}

// chatPayload is the inner document of a chat event. The broker double-encodes
// it: the envelope's data field is a JSON string holding this JSON document.
type chatPayload struct {
	Sender struct {
		Username string `json:"username"`
	} `json:"sender"`
	Content string `json:"content"`
}

// TopicName builds the room-scoped topic for a chatroom id.
func TopicName(chatroomID int64) string {
	return fmt.Sprintf("chatrooms.%d.v2", chatroomID)
}

// EncodeSubscribe builds the anonymous read-only subscription frame for the
// chatroom's topic.
func EncodeSubscribe(chatroomID int64) ([]byte, error) {
	return json.Marshal(outboundEnvelope{
		Event: eventSubscribe,
		Data: subscribeData{
			Auth:    "",
			Channel: TopicName(chatroomID),
		},
	})
}

// EncodePing builds the liveness probe frame.
func EncodePing() ([]byte, error) {
	return json.Marshal(outboundEnvelope{
		Event: eventPing,
		Data:  struct{}{},
	})
}

// Decode parses one inbound text frame. Unknown event tags yield FrameOther.
// A structurally invalid envelope, or a chat event whose payload fails either
// decode layer, yields ErrMalformedFrame; the caller logs and keeps the
// session alive.
func Decode(raw []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Frame{}, errors.Wrapf(exception.ErrMalformedFrame, "parse envelope: %v", err)
	}

	switch env.Event {
	case eventPong:
		return Frame{Kind: FramePong}, nil
	case eventChat:
		var inner string
		if err := json.Unmarshal(env.Data, &inner); err != nil {
			return Frame{}, errors.Wrapf(exception.ErrMalformedFrame, "chat data is not a string: %v", err)
		}
		var payload chatPayload
		if err := json.Unmarshal([]byte(inner), &payload); err != nil {
			return Frame{}, errors.Wrapf(exception.ErrMalformedFrame, "parse chat payload: %v", err)
		}
		return Frame{
			Kind: FrameChat,
			Chat: ChatMessage{
				Username: payload.Sender.Username,
				Content:  payload.Content,
			},
		}, nil
	default:
		return Frame{Kind: FrameOther}, nil
	}
}
