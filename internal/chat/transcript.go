package chat

import (
	"sync"
	"time"

	"github.com/tara-vision/codekt/internal/service"
)

// Kind discriminates transcript entries
type Kind string

const (
	KindQuestion Kind = "question"
	KindAnswer   Kind = "answer"
	KindError    Kind = "error"
)

// Message is one transcript entry. Questions and errors carry only Text;
// answers also carry Sources.
type Message struct {
	Seq       int                 `json:"seq"`
	Kind      Kind                `json:"kind"`
	Text      string              `json:"text"`
	Sources   []service.SourceRef `json:"sources,omitempty"`
	ReplyTo   int                 `json:"reply_to,omitempty"` // Seq of the question, responses only
	Timestamp time.Time           `json:"timestamp"`
}

// IsResponse reports whether the message answers a question
func (m Message) IsResponse() bool {
	return m.Kind == KindAnswer || m.Kind == KindError
}

// Transcript is an append-only, chronological list of messages. Entries
// are never edited, removed, reordered or deduplicated.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// appendQuestion adds a question and returns its Seq
func (t *Transcript) appendQuestion(text string) Message {
	return t.append(Message{Kind: KindQuestion, Text: text})
}

// appendResponse adds an answer or error for the question with Seq replyTo
func (t *Transcript) appendResponse(kind Kind, replyTo int, text string, sources []service.SourceRef) Message {
	return t.append(Message{Kind: kind, Text: text, Sources: sources, ReplyTo: replyTo})
}

func (t *Transcript) append(msg Message) Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg.Seq = len(t.messages) + 1
	msg.Timestamp = time.Now()
	t.messages = append(t.messages, msg)
	return msg
}

// Messages returns a copy of all entries in order
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of entries
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Unanswered returns the questions that have no response yet
func (t *Transcript) Unanswered() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	answered := make(map[int]bool)
	for _, m := range t.messages {
		if m.IsResponse() {
			answered[m.ReplyTo] = true
		}
	}

	var open []Message
	for _, m := range t.messages {
		if m.Kind == KindQuestion && !answered[m.Seq] {
			open = append(open, m)
		}
	}
	return open
}
