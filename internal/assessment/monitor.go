package assessment

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/talentgate/assessment-backend/internal/model"
)

// SignalKind names a raw signal raised by the candidate's input surface.
type SignalKind string

const (
	SignalBlur        SignalKind = "blur"
	SignalFocus       SignalKind = "focus"
	SignalKeyDown     SignalKind = "keydown"
	SignalCopy        SignalKind = "copy"
	SignalPaste       SignalKind = "paste"
	SignalCut         SignalKind = "cut"
	SignalContextMenu SignalKind = "contextmenu"
	SignalSelectStart SignalKind = "selectstart"
	SignalDragStart   SignalKind = "dragstart"
)

// Signal is an unclassified input/window event.
type Signal struct {
	Kind  SignalKind `json:"kind"`
	Key   string     `json:"key,omitempty"`
	Ctrl  bool       `json:"ctrl,omitempty"`
	Shift bool       `json:"shift,omitempty"`
	Alt   bool       `json:"alt,omitempty"`
	Meta  bool       `json:"meta,omitempty"`
}

// Gesture is a disallowed candidate action.
type Gesture string

const (
	GestureCopy        Gesture = "copy"
	GesturePaste       Gesture = "paste"
	GestureCut         Gesture = "cut"
	GestureSelectAll   Gesture = "select-all"
	GestureSelect      Gesture = "select"
	GestureDrag        Gesture = "drag"
	GestureContextMenu Gesture = "context-menu"
	GestureSave        Gesture = "save"
	GestureViewSource  Gesture = "view-source"
	GestureDevTools    Gesture = "dev-tools"
)

// IntegrityEvent is a classified signal.
type IntegrityEvent struct {
	Category model.IntegrityCategory `json:"category"`
	Gesture  Gesture                 `json:"gesture,omitempty"`
	At       time.Time               `json:"at"`
}

// KeyCombo is a keyboard shortcut that must be suppressed.
// Ctrl matches either Control or Meta so macOS shortcuts are covered.
type KeyCombo struct {
	Key     string  `json:"key"`
	Ctrl    bool    `json:"ctrl"`
	Shift   bool    `json:"shift"`
	Gesture Gesture `json:"gesture"`
}

// Policy tells the input surface which defaults to prevent.
type Policy struct {
	Events []SignalKind `json:"events"`
	Keys   []KeyCombo   `json:"keys"`
}

var blockedKeys = []KeyCombo{
	{Key: "f12", Gesture: GestureDevTools},
	{Key: "i", Ctrl: true, Shift: true, Gesture: GestureDevTools},
	{Key: "j", Ctrl: true, Shift: true, Gesture: GestureDevTools},
	{Key: "c", Ctrl: true, Shift: true, Gesture: GestureDevTools},
	{Key: "u", Ctrl: true, Gesture: GestureViewSource},
	{Key: "s", Ctrl: true, Gesture: GestureSave},
	{Key: "a", Ctrl: true, Gesture: GestureSelectAll},
	{Key: "c", Ctrl: true, Gesture: GestureCopy},
	{Key: "v", Ctrl: true, Gesture: GesturePaste},
	{Key: "x", Ctrl: true, Gesture: GestureCut},
}

var blockedEvents = map[SignalKind]Gesture{
	SignalCopy:        GestureCopy,
	SignalPaste:       GesturePaste,
	SignalCut:         GestureCut,
	SignalContextMenu: GestureContextMenu,
	SignalSelectStart: GestureSelect,
	SignalDragStart:   GestureDrag,
}

// BlockPolicy returns the gestures the surface must suppress at the source.
func BlockPolicy() Policy {
	return Policy{
		Events: []SignalKind{SignalCopy, SignalPaste, SignalCut, SignalContextMenu, SignalSelectStart, SignalDragStart},
		Keys:   append([]KeyCombo(nil), blockedKeys...),
	}
}

// Classify maps a raw signal to an integrity event. Signals that are not
// integrity relevant (ordinary typing, for instance) return false.
func Classify(sig Signal, at time.Time) (IntegrityEvent, bool) {
	switch sig.Kind {
	case SignalBlur:
		return IntegrityEvent{Category: model.IntegrityFocusLost, At: at}, true
	case SignalFocus:
		return IntegrityEvent{Category: model.IntegrityFocusRegained, At: at}, true
	case SignalKeyDown:
		if g, ok := matchKey(sig); ok {
			return IntegrityEvent{Category: model.IntegrityBlockedGesture, Gesture: g, At: at}, true
		}
		return IntegrityEvent{}, false
	}
	if g, ok := blockedEvents[sig.Kind]; ok {
		return IntegrityEvent{Category: model.IntegrityBlockedGesture, Gesture: g, At: at}, true
	}
	return IntegrityEvent{}, false
}

func matchKey(sig Signal) (Gesture, bool) {
	key := strings.ToLower(sig.Key)
	ctrl := sig.Ctrl || sig.Meta
	// Shifted combos come first in blockedKeys so ctrl+shift+c is dev tools.
	for _, k := range blockedKeys {
		if k.Key != key || (k.Ctrl && !ctrl) {
			continue
		}
		if k.Shift && !sig.Shift {
			continue
		}
		return k.Gesture, true
	}
	return "", false
}

// Surface is an ambient input source the monitor can attach to.
type Surface interface {
	Subscribe(fn func(Signal)) (unsubscribe func())
}

// ErrMonitorDetached is returned when attaching a monitor after Detach.
var ErrMonitorDetached = errors.New("integrity monitor is detached")

// Monitor classifies surface signals and reports every integrity event to
// all registered handlers, synchronously and in arrival order. It does not
// decide how events are displayed or logged.
type Monitor struct {
	src TimeSource

	mu       sync.Mutex
	handlers []func(IntegrityEvent)
	unsubs   []func()
	detached bool

	deliverMu sync.Mutex
}

// NewMonitor creates a monitor that stamps events with src.
func NewMonitor(src TimeSource) *Monitor {
	if src == nil {
		src = SystemTime{}
	}
	return &Monitor{src: src}
}

// OnEvent registers a handler. Handlers must not call back into the monitor.
func (m *Monitor) OnEvent(fn func(IntegrityEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return
	}
	m.handlers = append(m.handlers, fn)
}

// Attach subscribes the monitor to a surface.
func (m *Monitor) Attach(s Surface) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return ErrMonitorDetached
	}
	m.unsubs = append(m.unsubs, s.Subscribe(func(sig Signal) { m.Observe(sig) }))
	return nil
}

// Observe classifies a signal and, when relevant, delivers the event.
func (m *Monitor) Observe(sig Signal) (IntegrityEvent, bool) {
	ev, ok := Classify(sig, m.src.Now())
	if !ok {
		return ev, false
	}

	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	m.mu.Lock()
	if m.detached {
		m.mu.Unlock()
		return ev, false
	}
	handlers := make([]func(IntegrityEvent), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
	return ev, true
}

// Detach removes every subscription and handler. Later calls are no-ops.
func (m *Monitor) Detach() {
	m.mu.Lock()
	if m.detached {
		m.mu.Unlock()
		return
	}
	m.detached = true
	unsubs := m.unsubs
	m.unsubs = nil
	m.handlers = nil
	m.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}
