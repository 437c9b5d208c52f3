// Package bridge implements the extension's token message protocol. Each
// request reads, writes or clears the extension context's own credential
// store; the web context's store is never involved.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coldread-dev/coldread/internal/cli/credstore"
)

// MessageType names a bridge operation.
type MessageType string

const (
	GetToken   MessageType = "GET_TOKEN"
	SetToken   MessageType = "SET_TOKEN"
	ClearToken MessageType = "CLEAR_TOKEN"
)

// Message is a request from an extension surface.
type Message struct {
	ID    string      `json:"id,omitempty"`
	Type  MessageType `json:"type"`
	Token string      `json:"token,omitempty"`
}

// Response answers a Message. GET_TOKEN fills Token (nil when absent, or
// when the store could not be read, in which case Error is set); SET_TOKEN
// and CLEAR_TOKEN fill Success.
type Response struct {
	ID      string
	Type    MessageType
	Token   *string
	Success *bool
	Error   string
}

type wireResponse struct {
	ID      string  `json:"id,omitempty"`
	Token   *string `json:"token"`
	Success *bool   `json:"success,omitempty"`
	Error   string  `json:"error,omitempty"`
}

type wireStatus struct {
	ID      string `json:"id,omitempty"`
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MarshalJSON encodes GET_TOKEN replies as {"token": ...} with an explicit
// null when there is no token, and everything else as {"success": ...}.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Type == GetToken {
		return json.Marshal(wireResponse{ID: r.ID, Token: r.Token, Error: r.Error})
	}
	return json.Marshal(wireStatus{ID: r.ID, Success: r.Success, Error: r.Error})
}

// UnmarshalJSON decodes either reply shape.
func (r *Response) UnmarshalJSON(data []byte) error {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Response{ID: w.ID, Token: w.Token, Success: w.Success, Error: w.Error}
	return nil
}

// HasToken reports whether a GET_TOKEN response carried a token.
func (r Response) HasToken() bool {
	return r.Token != nil
}

// Bridge serves token messages against one credential store.
type Bridge struct {
	store credstore.Store
	log   zerolog.Logger
}

// New returns a bridge over store.
func New(store credstore.Store, log zerolog.Logger) *Bridge {
	return &Bridge{store: store, log: log}
}

// Handle processes msg and returns its response. All operations are
// idempotent.
func (b *Bridge) Handle(ctx context.Context, msg Message) Response {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	resp := Response{ID: msg.ID, Type: msg.Type}

	if err := ctx.Err(); err != nil {
		resp.Error = err.Error()
		return resp
	}

	switch msg.Type {
	case GetToken:
		token, err := b.store.GetToken()
		if err != nil && !errors.Is(err, credstore.ErrNotFound) {
			b.log.Error().Err(err).Msg("Bridge failed to read token")
			resp.Error = err.Error()
			return resp
		}
		if err == nil && token != "" {
			resp.Token = &token
		}
		return resp

	case SetToken:
		if msg.Token == "" {
			resp.Success = boolPtr(false)
			resp.Error = "token is required"
			return resp
		}
		err := b.store.SetToken(msg.Token)
		if err != nil {
			b.log.Error().Err(err).Msg("Bridge failed to store token")
			resp.Error = err.Error()
		}
		resp.Success = boolPtr(err == nil)
		return resp

	case ClearToken:
		// Clear drops the cached profile along with the token
		err := b.store.Clear()
		if err != nil {
			b.log.Error().Err(err).Msg("Bridge failed to clear token")
			resp.Error = err.Error()
		}
		resp.Success = boolPtr(err == nil)
		return resp

	default:
		resp.Error = fmt.Sprintf("unknown message type '%s'", msg.Type)
		return resp
	}
}

// Send handles msg asynchronously. The returned channel yields exactly one
// response and is then closed.
func (b *Bridge) Send(ctx context.Context, msg Message) <-chan Response {
	out := make(chan Response, 1)
	go func() {
		defer close(out)
		out <- b.Handle(ctx, msg)
	}()
	return out
}

func boolPtr(v bool) *bool {
	return &v
}
