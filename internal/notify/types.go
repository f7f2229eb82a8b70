package notify

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrQueueFull = errors.New("notify_queue_full")
	ErrClosed    = errors.New("notify_closed")
)

type Kind string

const (
	KindInvite Kind = "invite"
	KindTurn   Kind = "turn"
)

type Message struct {
	Kind      Kind   `json:"kind"`
	SessionID string `json:"session_id,omitempty"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Username  string `json:"username,omitempty"`
}

// Dispatcher delivers a message to a player out of band. Delivery is fire and
// forget: a nil error only means the message was accepted.
type Dispatcher interface {
	Notify(ctx context.Context, playerID string, msg Message) error
}

func InviteMessage(sessionID, username string) Message {
	return Message{
		Kind:      KindInvite,
		SessionID: sessionID,
		Title:     "Game Invite",
		Body:      "You've been invited to join a game session.",
		Username:  username,
	}
}

func TurnMessage(sessionID string, day int, phase string) Message {
	return Message{
		Kind:      KindTurn,
		SessionID: sessionID,
		Title:     "Your Turn",
		Body:      fmt.Sprintf("It's your turn (day %d, %s).", day, phase),
	}
}

// Noop accepts and discards every message.
type Noop struct{}

func (Noop) Notify(context.Context, string, Message) error { return nil }

type Config struct {
	WebhookURL          string
	Timeout             time.Duration
	Workers             int
	QueueSize           int
	RetryMax            int
	RetryBase           time.Duration
	FailureThreshold    int
	CircuitOpenDuration time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.RetryBase <= 0 {
		c.RetryBase = time.Second
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.CircuitOpenDuration <= 0 {
		c.CircuitOpenDuration = 30 * time.Second
	}
	return c
}
