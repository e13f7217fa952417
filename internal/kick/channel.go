package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/fatih-yavuz/kick-notifier/pkg/exception"
)

const (
	defaultAPIHost = "kick.com"

	// The lookup endpoint rejects requests that do not look like a browser.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	maxLookupBody = 4 << 10
)

// ChannelInfo is the resolved identity of a named channel. It is built once
// per resolve call and consumed to form the subscription topic.
type ChannelInfo struct {
	ChatroomID int64
	Livestream *LivestreamInfo
}

// LivestreamInfo is optional live-stream metadata attached to a channel.
type LivestreamInfo struct {
	ID      int64
	Viewers int64
}

// LookupError reports a non-success HTTP status from the channel lookup.
type LookupError struct {
	Status int
	Body   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("channel lookup failed, status: %d", e.Status)
}

// ChannelResolver translates a channel name into chatroom metadata.
type ChannelResolver interface {
	Resolve(ctx context.Context, channel string) (ChannelInfo, error)
}

// Resolver resolves channel names through the public HTTP lookup.
type Resolver struct {
	host   string
	client *http.Client
}

// NewResolver builds a Resolver. Empty host selects the production endpoint;
// a nil client gets a default with a request timeout.
func NewResolver(host string, client *http.Client) *Resolver {
	if host == "" {
		host = defaultAPIHost
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Resolver{host: host, client: client}
}

type channelResponse struct {
	Chatroom struct {
		ID int64 `json:"id"`
	} `json:"chatroom"`
	Livestream *struct {
		ID      int64 `json:"id"`
		Viewers int64 `json:"viewers"`
	} `json:"livestream"`
}

// Resolve looks up a channel name. Non-success statuses yield *LookupError,
// a structurally invalid body yields ErrChannelDecode.
func (r *Resolver) Resolve(ctx context.Context, channel string) (ChannelInfo, error) {
	if r == nil {
		return ChannelInfo{}, exception.ErrChannelDecode
	}

	endpoint := "https://" + r.host + "/api/v1/channels/" + url.PathEscape(channel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ChannelInfo{}, errors.Wrap(err, "build lookup request")
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := r.client.Do(req)
	if err != nil {
		logs.Errorf("channel lookup request failed, url: %s, err: %+v", endpoint, err)
		return ChannelInfo{}, errors.Wrap(err, "request channel lookup")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupBody))
	if err != nil {
		return ChannelInfo{}, errors.Wrap(err, "read lookup response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logs.Errorf("channel lookup rejected, url: %s, status: %d, body: %s", endpoint, resp.StatusCode, body)
		return ChannelInfo{}, &LookupError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed channelResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		logs.Errorf("channel lookup body is not valid json, url: %s, err: %+v", endpoint, err)
		return ChannelInfo{}, exception.ErrChannelDecode
	}
	if parsed.Chatroom.ID <= 0 {
		logs.Errorf("channel lookup body misses chatroom id, url: %s, body: %s", endpoint, body)
		return ChannelInfo{}, exception.ErrChannelDecode
	}

	info := ChannelInfo{ChatroomID: parsed.Chatroom.ID}
	if parsed.Livestream != nil {
		info.Livestream = &LivestreamInfo{
			ID:      parsed.Livestream.ID,
			Viewers: parsed.Livestream.Viewers,
		}
	}
	return info, nil
}
