package conversation

import (
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/carebot/internal/responder"
)

// DefaultWelcome seeds every new session.
const DefaultWelcome = "Xin chào! Tôi là trợ lý ảo của CareLink. Tôi có thể giúp bạn đặt lịch khám, tìm bác sĩ, quyên góp hoặc giải đáp các thắc mắc khác."

const subscriberBuffer = 32

// Responder produces the bot reply for a user message.
type Responder interface {
	Resolve(text string, auth responder.AuthContext) responder.Reply
}

// ReplyHook is called after a bot reply has been appended, outside the
// session lock.
type ReplyHook func(sessionID string, msg Message, reply responder.Reply, auth responder.AuthContext)

// Config holds the settings shared by every session of a Manager.
type Config struct {
	Welcome     string
	TypingDelay time.Duration
	Policy      ReplyPolicy
	Clock       clockwork.Clock
	Logger      *slog.Logger
	OnReply     ReplyHook
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Welcome) == "" {
		c.Welcome = DefaultWelcome
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

type pendingReply struct {
	text   string
	auth   responder.AuthContext
	handle *Pending
}

// Session is a single conversation between one user and the bot. All
// mutations happen under mu, so appends keep their order even though replies
// are delivered from timer goroutines.
type Session struct {
	id         string
	responder  Responder
	delayer    *Delayer
	policy     ReplyPolicy
	clock      clockwork.Clock
	logger     *slog.Logger
	onReply    ReplyHook
	visibility Visibility

	mu           sync.Mutex
	messages     []Message
	queue        []*pendingReply
	subscribers  map[int]chan Message
	nextSub      int
	disposed     bool
	lastActivity time.Time
}

// NewSession creates a session seeded with the welcome message.
func NewSession(id string, r Responder, cfg Config) *Session {
	cfg = cfg.withDefaults()
	if id == "" {
		id = uuid.NewString()
	}

	s := &Session{
		id:          id,
		responder:   r,
		delayer:     NewDelayer(cfg.TypingDelay, cfg.Clock),
		policy:      cfg.Policy,
		clock:       cfg.Clock,
		logger:      cfg.Logger.With("component", "conversation", "session_id", id),
		onReply:     cfg.OnReply,
		messages:    make([]Message, 0, 16),
		subscribers: make(map[int]chan Message),
	}
	s.appendLocked(AuthorBot, cfg.Welcome)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Visibility returns the widget open/closed toggle of this session.
func (s *Session) Visibility() *Visibility {
	return &s.visibility
}

// Submit appends a user message and schedules the bot reply. Blank input is
// rejected with ErrEmptyMessage and leaves the session untouched.
func (s *Session) Submit(text string, auth responder.AuthContext) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return Message{}, ErrSessionDisposed
	}

	msg := s.appendLocked(AuthorUser, text)
	p := &pendingReply{text: text, auth: auth}
	s.queue = append(s.queue, p)

	if s.policy == PolicyOverlap || len(s.queue) == 1 {
		s.scheduleLocked(p)
	} else {
		s.logger.Debug("Reply queued behind pending reply", "queued", len(s.queue)-1)
	}

	return msg, nil
}

func (s *Session) scheduleLocked(p *pendingReply) {
	p.handle = s.delayer.Schedule(func() { s.deliver(p) })
}

func (s *Session) deliver(p *pendingReply) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		s.logger.Debug("Dropping reply for disposed session")
		return
	}

	idx := slices.Index(s.queue, p)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.queue = slices.Delete(s.queue, idx, idx+1)

	reply := s.responder.Resolve(p.text, p.auth)
	msg := s.appendLocked(AuthorBot, reply.Text)

	if s.policy == PolicySerialize && len(s.queue) > 0 {
		s.scheduleLocked(s.queue[0])
	}
	hook := s.onReply
	s.mu.Unlock()

	s.logger.Debug("Reply appended", "rule", reply.Rule, "auth", p.auth.String())
	if hook != nil {
		hook(s.id, msg, reply, p.auth)
	}
}

func (s *Session) appendLocked(author Author, text string) Message {
	now := s.clock.Now().UTC()
	msg := Message{
		ID:        uuid.NewString(),
		Author:    author,
		Text:      text,
		CreatedAt: now,
	}
	s.messages = append(s.messages, msg)
	s.lastActivity = now

	for id, ch := range s.subscribers {
		select {
		case ch <- msg:
		default:
			s.logger.Warn("Subscriber too slow, message dropped", "subscriber", id, "message_id", msg.ID)
		}
	}
	return msg
}

// Messages returns a copy of the transcript in display order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Len returns the number of messages in the transcript.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// State reports AwaitingReply while any reply is pending.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) > 0 {
		return StateAwaitingReply
	}
	return StateIdle
}

// Pending returns the number of replies not yet appended.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Touch marks the session as active without appending a message. Open
// widget connections call it so SweepIdle leaves their session alone.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.disposed {
		s.lastActivity = s.clock.Now().UTC()
	}
}

func (s *Session) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Subscribe streams every message appended from now on. The channel is
// closed when the session is disposed or the returned cancel func is called.
func (s *Session) Subscribe() (<-chan Message, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Message, subscriberBuffer)
	if s.disposed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(c)
		}
	}
}

// Dispose cancels every pending reply and closes subscriptions. The
// transcript is frozen; later submissions fail with ErrSessionDisposed and
// timers that still fire are ignored. Dispose is idempotent.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.disposed = true

	cancelled := 0
	for _, p := range s.queue {
		if p.handle.Cancel() {
			cancelled++
		}
	}
	s.queue = nil

	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}

	s.logger.Debug("Session disposed", "cancelled_replies", cancelled, "messages", len(s.messages))
}
