// Package session manages the persistent session identifier that scopes a
// client's websocket connection, and builds/dials the connection URL.
package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/freemocap/skellysubs/errors"
)

// DefaultFileName is the file the session ID persists under.
const DefaultFileName = "skellysubs-session-id"

// Store persists a single session UUID to a file, generating it once if
// absent. Repeated loads return the same identifier.
type Store struct {
	path string

	mu sync.Mutex
	id string
}

// NewStore creates a store backed by the given file path. An empty path
// defaults to DefaultFileName in the user cache directory, falling back to
// the OS temp dir.
func NewStore(path string) *Store {
	if path == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		path = filepath.Join(base, DefaultFileName)
	}
	return &Store{path: path}
}

// ID returns the session identifier, generating and persisting a UUID on
// first use.
func (s *Store) ID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" {
		return s.id, nil
	}

	data, err := os.ReadFile(s.path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if _, perr := uuid.Parse(id); perr == nil {
			s.id = id
			return id, nil
		}
		// Corrupt file: regenerate below.
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return "", errors.Internal(err)
	}
	if err := os.WriteFile(s.path, []byte(id), 0o600); err != nil {
		return "", errors.Internal(err)
	}
	s.id = id
	return id, nil
}

// WebsocketURL builds "{origin}/websocket/connect/{sessionId}", mapping
// http(s) origins to ws(s).
func WebsocketURL(origin, sessionID string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", errors.InvalidInput("origin", err.Error())
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.InvalidInput("origin", fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/websocket/connect/" + sessionID
	return u.String(), nil
}

// Dial connects to the session's websocket endpoint on the given origin.
func (s *Store) Dial(ctx context.Context, origin string) (*websocket.Conn, *http.Response, error) {
	id, err := s.ID()
	if err != nil {
		return nil, nil, err
	}
	wsURL, err := WebsocketURL(origin, id)
	if err != nil {
		return nil, nil, err
	}
	return websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
}
