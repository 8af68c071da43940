// Package history keeps a bounded log of saved document versions.
package history

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/blueeyes/writer/internal/ulid"
)

const summaryLength = 60

var ErrEntryNotFound = errors.New("history entry not found")

// Entry is one saved version of a document.
type Entry struct {
	ID        string
	Document  string
	Timestamp time.Time
	Summary   string
	Content   string
}

func (e Entry) Identifier() string {
	return e.ID
}

// Log is a thread-safe, bounded log of entries ordered from newest to
// oldest. Adding an entry to a full log evicts the oldest one.
type Log struct {
	capacity int
	mu       sync.RWMutex
	order    *list.List

	now func() time.Time
}

func NewLog(capacity int) *Log {
	if capacity < 1 {
		capacity = 1
	}
	return &Log{
		capacity: capacity,
		order:    list.New(),
		now:      time.Now,
	}
}

// Record stores content saved for the document docID and returns the new
// entry.
func (l *Log) Record(docID, content string) Entry {
	entry := Entry{
		ID:        ulid.GenerateID(),
		Document:  docID,
		Timestamp: l.now(),
		Summary:   Summarize(content),
		Content:   content,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.order.Len() >= l.capacity {
		l.evictUnsafe()
	}
	l.order.PushFront(entry)
	return entry
}

func (l *Log) evictUnsafe() {
	element := l.order.Back()
	if element != nil {
		l.order.Remove(element)
	}
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.order.Len()
}

// Entries returns all entries, newest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Entry, 0, l.order.Len())
	for element := l.order.Front(); element != nil; element = element.Next() {
		result = append(result, element.Value.(Entry))
	}
	return result
}

// Newest returns the most recent entry.
func (l *Log) Newest() (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.order.Len() == 0 {
		return Entry{}, false
	}
	return l.order.Front().Value.(Entry), true
}

func (l *Log) Get(id string) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for element := l.order.Front(); element != nil; element = element.Next() {
		entry := element.Value.(Entry)
		if entry.ID == id {
			return entry, nil
		}
	}
	return Entry{}, errors.Wrapf(ErrEntryNotFound, "id %s", id)
}

func (l *Log) Delete(id string) (present bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for element := l.order.Front(); element != nil; element = element.Next() {
		if element.Value.(Entry).ID == id {
			l.order.Remove(element)
			return true
		}
	}
	return false
}

// Summarize returns the first non-empty line of content, shortened to a
// fixed number of characters.
func Summarize(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > summaryLength {
			return string(runes[:summaryLength-1]) + "…"
		}
		return line
	}
	return ""
}
