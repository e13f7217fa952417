package kick

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/fatih-yavuz/kick-notifier/pkg/exception"
)

func TestDecodePong(t *testing.T) {
	for _, raw := range []string{
		`{"event":"pusher:pong","data":{}}`,
		`{"event":"pusher:pong","data":"{}"}`,
		`{"event":"pusher:pong"}`,
	} {
		frame, err := Decode([]byte(raw))
		if err != nil {
			t.Fatalf("decode %s, err: %v", raw, err)
		}
		if frame.Kind != FramePong {
			t.Fatalf("decode %s, kind: %d", raw, frame.Kind)
		}
	}
}

func TestDecodeChat(t *testing.T) {
	raw := `{"event":"App\\Events\\ChatMessageEvent","data":"{\"sender\":{\"username\":\"Bob\"},\"content\":\"hi there\"}"}`
	frame, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode chat, err: %v", err)
	}
	if frame.Kind != FrameChat {
		t.Fatalf("decode chat, kind: %d", frame.Kind)
	}
	if frame.Chat.Username != "Bob" {
		t.Fatalf("decode chat, username: %q", frame.Chat.Username)
	}
	if frame.Chat.Content != "hi there" {
		t.Fatalf("decode chat, content: %q", frame.Chat.Content)
	}
}

func TestDecodeChatDataNotAString(t *testing.T) {
	raw := `{"event":"App\\Events\\ChatMessageEvent","data":{"sender":{"username":"Bob"},"content":"hi"}}`
	_, err := Decode([]byte(raw))
	if !errors.Is(err, exception.ErrMalformedFrame) {
		t.Fatalf("decode chat with object data, err: %v", err)
	}
}

func TestDecodeChatInnerNotJSON(t *testing.T) {
	raw := `{"event":"App\\Events\\ChatMessageEvent","data":"not json"}`
	_, err := Decode([]byte(raw))
	if !errors.Is(err, exception.ErrMalformedFrame) {
		t.Fatalf("decode chat with bad inner payload, err: %v", err)
	}
}

func TestDecodeBadEnvelope(t *testing.T) {
	_, err := Decode([]byte(`{"event":`))
	if !errors.Is(err, exception.ErrMalformedFrame) {
		t.Fatalf("decode truncated envelope, err: %v", err)
	}
}

func TestDecodeMalformedCarriesDetail(t *testing.T) {
	for _, raw := range []string{
		`{"event":`,
		`{"event":"App\\Events\\ChatMessageEvent","data":{}}`,
		`{"event":"App\\Events\\ChatMessageEvent","data":"not json"}`,
	} {
		_, err := Decode([]byte(raw))
		if !errors.Is(err, exception.ErrMalformedFrame) {
			t.Fatalf("decode %s, err: %v", raw, err)
		}
		if err.Error() == exception.ErrMalformedFrame.Error() {
			t.Fatalf("decode %s, missing decode detail: %v", raw, err)
		}
	}
}

func TestDecodeUnknownEvent(t *testing.T) {
	frame, err := Decode([]byte(`{"event":"pusher:connection_established","data":"{}"}`))
	if err != nil {
		t.Fatalf("decode unknown event, err: %v", err)
	}
	if frame.Kind != FrameOther {
		t.Fatalf("decode unknown event, kind: %d", frame.Kind)
	}
}

func TestEncodeSubscribe(t *testing.T) {
	raw, err := EncodeSubscribe(42)
	if err != nil {
		t.Fatalf("encode subscribe, err: %v", err)
	}

	var frame struct {
		Event string `json:"event"`
		Data  struct {
			Auth    string `json:"auth"`
			Channel string `json:"channel"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("unmarshal subscribe, err: %v", err)
	}
	if frame.Event != "pusher:subscribe" {
		t.Fatalf("subscribe event: %q", frame.Event)
	}
	if frame.Data.Auth != "" {
		t.Fatalf("subscribe auth: %q", frame.Data.Auth)
	}
	if frame.Data.Channel != "chatrooms.42.v2" {
		t.Fatalf("subscribe channel: %q", frame.Data.Channel)
	}
}

func TestEncodePing(t *testing.T) {
	raw, err := EncodePing()
	if err != nil {
		t.Fatalf("encode ping, err: %v", err)
	}
	var frame struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("unmarshal ping, err: %v", err)
	}
	if frame.Event != "pusher:ping" {
		t.Fatalf("ping event: %q", frame.Event)
	}
}

func TestTopicName(t *testing.T) {
	if got := TopicName(196214); got != "chatrooms.196214.v2" {
		t.Fatalf("topic name: %q", got)
	}
}
