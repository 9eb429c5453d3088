package assessment

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/talentgate/assessment-backend/internal/model"
)

type fakeSurface struct {
	mu   sync.Mutex
	subs map[int]func(Signal)
	next int
}

func newFakeSurface() *fakeSurface { return &fakeSurface{subs: map[int]func(Signal){}} }

func (s *fakeSurface) Subscribe(fn func(Signal)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *fakeSurface) emit(sig Signal) {
	s.mu.Lock()
	subs := make([]func(Signal), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(sig)
	}
}

func (s *fakeSurface) listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func TestClassify(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		sig      Signal
		ok       bool
		category model.IntegrityCategory
		gesture  Gesture
	}{
		{"blur", Signal{Kind: SignalBlur}, true, model.IntegrityFocusLost, ""},
		{"focus", Signal{Kind: SignalFocus}, true, model.IntegrityFocusRegained, ""},
		{"copy event", Signal{Kind: SignalCopy}, true, model.IntegrityBlockedGesture, GestureCopy},
		{"paste event", Signal{Kind: SignalPaste}, true, model.IntegrityBlockedGesture, GesturePaste},
		{"context menu", Signal{Kind: SignalContextMenu}, true, model.IntegrityBlockedGesture, GestureContextMenu},
		{"select start", Signal{Kind: SignalSelectStart}, true, model.IntegrityBlockedGesture, GestureSelect},
		{"f12", Signal{Kind: SignalKeyDown, Key: "F12"}, true, model.IntegrityBlockedGesture, GestureDevTools},
		{"ctrl+shift+i", Signal{Kind: SignalKeyDown, Key: "I", Ctrl: true, Shift: true}, true, model.IntegrityBlockedGesture, GestureDevTools},
		{"ctrl+shift+c", Signal{Kind: SignalKeyDown, Key: "C", Ctrl: true, Shift: true}, true, model.IntegrityBlockedGesture, GestureDevTools},
		{"ctrl+c", Signal{Kind: SignalKeyDown, Key: "c", Ctrl: true}, true, model.IntegrityBlockedGesture, GestureCopy},
		{"cmd+v", Signal{Kind: SignalKeyDown, Key: "v", Meta: true}, true, model.IntegrityBlockedGesture, GesturePaste},
		{"ctrl+x", Signal{Kind: SignalKeyDown, Key: "x", Ctrl: true}, true, model.IntegrityBlockedGesture, GestureCut},
		{"ctrl+a", Signal{Kind: SignalKeyDown, Key: "a", Ctrl: true}, true, model.IntegrityBlockedGesture, GestureSelectAll},
		{"ctrl+s", Signal{Kind: SignalKeyDown, Key: "s", Ctrl: true}, true, model.IntegrityBlockedGesture, GestureSave},
		{"ctrl+u", Signal{Kind: SignalKeyDown, Key: "u", Ctrl: true}, true, model.IntegrityBlockedGesture, GestureViewSource},
		{"plain c", Signal{Kind: SignalKeyDown, Key: "c"}, false, "", ""},
		{"shift+i", Signal{Kind: SignalKeyDown, Key: "I", Shift: true}, false, "", ""},
		{"unknown kind", Signal{Kind: "scroll"}, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Classify(tt.sig, at)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if ev.Category != tt.category || ev.Gesture != tt.gesture {
				t.Fatalf("got (%s, %s), want (%s, %s)", ev.Category, ev.Gesture, tt.category, tt.gesture)
			}
			if !ev.At.Equal(at) {
				t.Fatalf("At = %v, want %v", ev.At, at)
			}
		})
	}
}

func TestBlockPolicyCoversEveryBlockedKey(t *testing.T) {
	p := BlockPolicy()
	if len(p.Keys) != len(blockedKeys) {
		t.Fatalf("policy has %d keys, want %d", len(p.Keys), len(blockedKeys))
	}
	if len(p.Events) != len(blockedEvents) {
		t.Fatalf("policy has %d events, want %d", len(p.Events), len(blockedEvents))
	}
	p.Keys[0].Key = "mutated"
	if blockedKeys[0].Key == "mutated" {
		t.Fatal("policy must not alias the internal table")
	}
}

func TestMonitorDeliversToAllHandlersInOrder(t *testing.T) {
	surface := newFakeSurface()
	m := NewMonitor(newManualTime())

	var first, second []model.IntegrityCategory
	m.OnEvent(func(ev IntegrityEvent) { first = append(first, ev.Category) })
	m.OnEvent(func(ev IntegrityEvent) { second = append(second, ev.Category) })
	if err := m.Attach(surface); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	surface.emit(Signal{Kind: SignalBlur})
	surface.emit(Signal{Kind: SignalKeyDown, Key: "k"})
	surface.emit(Signal{Kind: SignalCopy})
	surface.emit(Signal{Kind: SignalFocus})

	want := []model.IntegrityCategory{model.IntegrityFocusLost, model.IntegrityBlockedGesture, model.IntegrityFocusRegained}
	for name, got := range map[string][]model.IntegrityCategory{"first": first, "second": second} {
		if len(got) != len(want) {
			t.Fatalf("%s handler got %v, want %v", name, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s handler got %v, want %v", name, got, want)
			}
		}
	}
}

func TestMonitorDetach(t *testing.T) {
	surface := newFakeSurface()
	m := NewMonitor(nil)

	calls := 0
	m.OnEvent(func(IntegrityEvent) { calls++ })
	if err := m.Attach(surface); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if surface.listeners() != 1 {
		t.Fatalf("listeners = %d, want 1", surface.listeners())
	}

	m.Detach()
	m.Detach()

	if surface.listeners() != 0 {
		t.Fatalf("listeners after detach = %d, want 0", surface.listeners())
	}
	if _, ok := m.Observe(Signal{Kind: SignalBlur}); ok {
		t.Fatal("detached monitor must not deliver")
	}
	if calls != 0 {
		t.Fatalf("handler called %d times after detach", calls)
	}
	if err := m.Attach(surface); !errors.Is(err, ErrMonitorDetached) {
		t.Fatalf("Attach after detach = %v, want ErrMonitorDetached", err)
	}
}

func TestMonitorConcurrentSignalsAreAllDelivered(t *testing.T) {
	m := NewMonitor(nil)
	var mu sync.Mutex
	count := 0
	m.OnEvent(func(IntegrityEvent) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Observe(Signal{Kind: SignalPaste})
		}()
	}
	wg.Wait()

	if count != 40 {
		t.Fatalf("delivered %d events, want 40", count)
	}
}
