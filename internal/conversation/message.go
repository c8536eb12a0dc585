// Package conversation owns chat sessions: the ordered message sequence, the
// Idle/AwaitingReply turn-taking state machine, the simulated typing delay in
// front of every bot reply, and the widget visibility toggle.
package conversation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrSessionDisposed = errors.New("session disposed")
	ErrSessionNotFound = errors.New("session not found")
)

// Author tags who wrote a message.
type Author string

const (
	AuthorUser Author = "user"
	AuthorBot  Author = "bot"
)

// Message is one immutable entry of a session transcript.
type Message struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// State is the turn-taking state of a session.
type State int

const (
	StateIdle State = iota
	StateAwaitingReply
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReply:
		return "awaiting_reply"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText lets State render as its name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "awaiting_reply":
		*s = StateAwaitingReply
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}

// ReplyPolicy decides what happens when a user submits again while a reply
// is still pending.
type ReplyPolicy int

const (
	// PolicySerialize queues replies: one typing delay runs at a time and
	// replies are appended in the order of the user messages they answer.
	PolicySerialize ReplyPolicy = iota
	// PolicyOverlap starts an independent delay per submission, so replies to
	// rapid messages can interleave with later user messages.
	PolicyOverlap
)

func (p ReplyPolicy) String() string {
	if p == PolicyOverlap {
		return "overlap"
	}
	return "serialize"
}

// ParsePolicy converts a configuration value into a ReplyPolicy.
func ParsePolicy(s string) (ReplyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "serialize":
		return PolicySerialize, nil
	case "overlap":
		return PolicyOverlap, nil
	default:
		return PolicySerialize, fmt.Errorf("unknown reply policy %q", s)
	}
}
