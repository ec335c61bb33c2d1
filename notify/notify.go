// Package notify is the process-wide feedback channel: flash messages and the loading indicator.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

const defaultCapacity = 32

// Notifier surfaces user facing messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LoadingBar signals progress of a navigation.
type LoadingBar interface {
	Start()
	Finish()
	Error()
}

type Message struct {
	Level Level
	Text  string
	At    time.Time
}

// Feed keeps the most recent messages until they are drained by the UI and mirrors each one to the log.
// One Feed is created at startup and shared by every component.
type Feed struct {
	mu       sync.Mutex
	capacity int
	messages []Message
}

var _ Notifier = (*Feed)(nil)

func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Feed{capacity: capacity}
}

func (f *Feed) Success(msg string) {
	log.Info().Str("kind", string(LevelSuccess)).Msg(msg)
	f.push(LevelSuccess, msg)
}

func (f *Feed) Error(msg string) {
	log.Warn().Str("kind", string(LevelError)).Msg(msg)
	f.push(LevelError, msg)
}

// Messages returns the pending messages without removing them.
func (f *Feed) Messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.messages...)
}

// Drain returns and removes the pending messages.
func (f *Feed) Drain() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	drained := f.messages
	f.messages = nil
	return drained
}

func (f *Feed) push(level Level, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, Message{Level: level, Text: text, At: time.Now()})
	if len(f.messages) > f.capacity {
		f.messages = f.messages[len(f.messages)-f.capacity:]
	}
}

// Indicator is the LoadingBar shown while the guard and page handlers resolve a navigation.
type Indicator struct {
	mu      sync.Mutex
	loading bool
	failed  bool
}

var _ LoadingBar = (*Indicator)(nil)

func (i *Indicator) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.loading = true
	i.failed = false
}

func (i *Indicator) Finish() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.loading = false
}

func (i *Indicator) Error() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.loading = false
	i.failed = true
}

// State reports whether a navigation is in progress and whether the last one failed.
func (i *Indicator) State() (inProgress, failed bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.loading, i.failed
}
