package store

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Server exposes a Memory store to Clients over websocket.
// Each connection identifies its owner with the "owner" query parameter.
type Server struct {
	mem      *Memory
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a server backed by mem. A nil logger uses slog.Default().
func NewServer(mem *Memory, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		mem:    mem,
		logger: logger.With("component", "store_server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// session serializes writes to one connection.
type session struct {
	owner string
	conn  *websocket.Conn
	mu    sync.Mutex
}

func (s *session) send(f Frame) error {
	data, err := EncodeFrame(f)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// ServeHTTP upgrades the request and serves frames until the connection closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "missing owner", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade_failed", "owner", owner, "error", err)
		return
	}
	defer conn.Close()

	sess := &session{owner: owner, conn: conn}
	var cancels []func()
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	s.logger.Info("session_opened", "owner", owner)
	defer s.logger.Info("session_closed", "owner", owner)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		req, err := DecodeFrame(payload)
		if err != nil {
			s.logger.Warn("malformed_frame", "owner", owner, "error", err)
			continue
		}

		switch req.Kind {
		case FrameSubscribe:
			cancels = append(cancels, s.mem.Watch(func(recs []SwimmerRecord) {
				if err := sess.send(Frame{Kind: FrameSwimmers, Swimmers: recs}); err != nil {
					s.logger.Debug("push_failed", "owner", owner, "error", err)
				}
			}))
		case FrameSubscribePlayers:
			cancels = append(cancels, s.mem.WatchPlayers(func(recs []PlayerRecord) {
				if err := sess.send(Frame{Kind: FramePlayers, Players: recs}); err != nil {
					s.logger.Debug("push_failed", "owner", owner, "error", err)
				}
			}))
		default:
			if err := sess.send(s.handle(owner, req)); err != nil {
				return
			}
		}
	}
}

// handle answers a request frame.
func (s *Server) handle(owner string, req Frame) Frame {
	reply := Frame{Kind: FrameReply, Seq: req.Seq}
	switch req.Kind {
	case FrameReadAll:
		reply.Swimmers = s.mem.Swimmers()
	case FrameRemove:
		replyError(&reply, removeSwimmer(s.mem, req.ID))
	case FrameWritePosition:
		s.mem.SetPlayerPosition(owner, req.X, req.Y)
	case FrameReadUser:
		u, ok := s.mem.User(owner)
		if !ok {
			replyError(&reply, ErrNotFound)
			break
		}
		reply.User = &u
	default:
		reply.Error = "unknown request"
		reply.Code = codeInternal
	}
	return reply
}
