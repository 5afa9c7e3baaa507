package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"portfolioDashboard/internal/session"
)

// SessionStore keeps one session.State per chat as a JSON blob.
type SessionStore struct {
	db DB

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
	now   func() time.Time
}

func NewSessionStore(db DB) *SessionStore {
	return &SessionStore{db: db, locks: map[int64]*sync.Mutex{}, now: time.Now}
}

// Load returns the chat's state, or ok=false when none was saved yet.
func (s *SessionStore) Load(ctx context.Context, chatID int64) (session.State, bool, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE chat_id=?`, chatID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return session.State{}, false, nil
	}
	if err != nil {
		return session.State{}, false, fmt.Errorf("load session %d: %w", chatID, err)
	}
	var st session.State
	if err := json.Unmarshal([]byte(blob), &st); err != nil {
		return session.State{}, false, fmt.Errorf("decode session %d: %w", chatID, err)
	}
	return st, true, nil
}

func (s *SessionStore) Save(ctx context.Context, st session.State) error {
	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", st.ChatID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions(chat_id,state,updated_at) VALUES(?,?,?)
		 ON CONFLICT(chat_id) DO UPDATE SET state=excluded.state, updated_at=excluded.updated_at`,
		st.ChatID, string(blob), s.now().Unix())
	if err != nil {
		return fmt.Errorf("save session %d: %w", st.ChatID, err)
	}
	return nil
}

// Update runs load, fn, save for one chat while holding that chat's lock.
// A chat with no stored state starts from fresh(). fn's error aborts the save.
func (s *SessionStore) Update(ctx context.Context, chatID int64, fresh func() session.State,
	fn func(session.State) (session.State, error)) (session.State, error) {
	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	st, ok, err := s.Load(ctx, chatID)
	if err != nil {
		return session.State{}, err
	}
	if !ok {
		st = fresh()
		st.ChatID = chatID
	}
	next, err := fn(st)
	if err != nil {
		return st, err
	}
	next.ChatID = chatID
	if err := s.Save(ctx, next); err != nil {
		return st, err
	}
	return next, nil
}

func (s *SessionStore) chatLock(chatID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	return l
}
