package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/assessment"
)

const (
	writeWait = 10 * time.Second
	sendQueue = 64

	// pongWait is how long the peer may stay silent, pongs included.
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// Stream owns the write side of a connection. Send never blocks: messages
// are queued and written by a single pump goroutine in order. Stream is also
// the integrity monitor's input surface; Emit fans a client signal out to
// every subscriber.
//
// The pump pings the peer every pingPeriod and each pong pushes the read
// deadline out by pongWait, so a candidate reading a question for a long time
// keeps the connection alive.
type Stream struct {
	conn       *websocket.Conn
	log        zerolog.Logger
	pongWait   time.Duration
	pingPeriod time.Duration

	send      chan any
	closeOnce sync.Once
	closed    chan struct{}
	pumpDone  chan struct{}

	mu     sync.Mutex
	nextID int
	subs   map[int]func(assessment.Signal)
}

// NewStream starts the write pump for conn.
func NewStream(conn *websocket.Conn, log zerolog.Logger) *Stream {
	return newStream(conn, log, pongWait, pingPeriod)
}

func newStream(conn *websocket.Conn, log zerolog.Logger, wait, period time.Duration) *Stream {
	s := &Stream{
		conn:       conn,
		log:        log,
		pongWait:   wait,
		pingPeriod: period,
		send:       make(chan any, sendQueue),
		closed:     make(chan struct{}),
		pumpDone:   make(chan struct{}),
		subs:       make(map[int]func(assessment.Signal)),
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.pongWait))
	})
	go s.pump()
	return s
}

// ReadJSON reads and decodes the next client message. It must only be called
// from a single reader goroutine.
func (s *Stream) ReadJSON(v any) error {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.pongWait)); err != nil {
		return err
	}
	return s.conn.ReadJSON(v)
}

// Send queues v. It reports false when the stream is closed or the queue is
// full.
func (s *Stream) Send(v any) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.send <- v:
		return true
	default:
		s.log.Warn().Msg("Send queue full, dropping message")
		return false
	}
}

// SendError queues an ErrorResponse.
func (s *Stream) SendError(msg string) bool {
	return s.Send(ErrorResponse{Event: EventError, Error: msg})
}

// Close stops accepting messages, flushes what is queued and closes the
// connection with a normal closure frame.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		<-s.pumpDone
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.Close()
	})
}

func (s *Stream) pump() {
	defer close(s.pumpDone)
	ticker := time.NewTicker(s.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case v := <-s.send:
			if !s.write(v) {
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.log.Debug().Err(err).Msg("Ping failed, stopping pump")
				return
			}
		case <-s.closed:
			for {
				select {
				case v := <-s.send:
					if !s.write(v) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (s *Stream) write(v any) bool {
	if err := WriteTyped(s.conn, v); err != nil {
		s.log.Debug().Err(err).Msg("Write failed, stopping pump")
		return false
	}
	return true
}

// Subscribe registers fn for client signals.
func (s *Stream) Subscribe(fn func(assessment.Signal)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Emit delivers a client signal to every subscriber.
func (s *Stream) Emit(sig assessment.Signal) {
	s.mu.Lock()
	fns := make([]func(assessment.Signal), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(sig)
	}
}
