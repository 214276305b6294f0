package core

import (
	"errors"
	"sync"
	"time"

	"github.com/yishu-dev/yishu/pkg/models"
)

// memSnapshotStore is an in-memory SnapshotStore for tests.
type memSnapshotStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failPut bool
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{data: make(map[string][]byte)}
}

func (s *memSnapshotStore) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return errors.New("disk full")
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memSnapshotStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memSnapshotStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

type loggedEvent struct {
	Type string
	Data map[string]any
}

// recordingLogger captures every event written to it.
type recordingLogger struct {
	mu     sync.Mutex
	events []loggedEvent
}

func (l *recordingLogger) LogEvent(eventType string, data map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, loggedEvent{Type: eventType, Data: data})
	return nil
}

func (l *recordingLogger) count(eventType string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func (l *recordingLogger) last(eventType string) (loggedEvent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Type == eventType {
			return l.events[i], true
		}
	}
	return loggedEvent{}, false
}

// recordingNotifier captures notices.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordingNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) levels() []NoticeLevel {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NoticeLevel, len(n.notices))
	for i, notice := range n.notices {
		out[i] = notice.Level
	}
	return out
}

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// newTestManager returns a manager with a deterministic clock and ids.
func newTestManager(store SnapshotStore, logger EventLogger) *interviewManager {
	m := NewInterviewManager(DefaultQuestionCatalog(), store, logger).(*interviewManager)
	tick := 0
	m.now = func() time.Time {
		tick++
		return fixedNow.Add(time.Duration(tick) * time.Second)
	}
	ids := 0
	m.newID = func() string {
		ids++
		return "session-" + string(rune('a'+ids-1))
	}
	return m
}

// answerRequired saves an answer for every required question of stage.
func answerRequired(t interface{ Fatalf(string, ...any) }, m InterviewManager, stage models.Stage) {
	for _, q := range m.Catalog().QuestionsForStage(stage) {
		if !q.Required {
			continue
		}
		if r := m.SaveAnswer(q.ID, "回答："+q.Text, AnswerOpts{}); !r.Applied() {
			t.Fatalf("SaveAnswer(%s) = %v", q.ID, r)
		}
	}
}
