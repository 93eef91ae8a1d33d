// Package auth implements the credential store, password hashing, and
// session-token issuance for Protected Local mode.
package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role is a user's authorization role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ErrDuplicateUsername is returned by Store.Add when the username is taken.
var ErrDuplicateUsername = errors.New("username already exists")

// ErrNotFound is returned when a user id does not exist in the store.
var ErrNotFound = errors.New("user not found")

// User is a persisted account: identity, hashed credential, and role.
type User struct {
	ID           string     `json:"id"`
	DisplayName  string     `json:"displayName"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"passwordHash"`
	Role         Role       `json:"role"`
	CreatedAt    int64      `json:"createdAt"`
	LastLoginAt  *int64     `json:"lastLoginAt,omitempty"`
}

// NewUser builds a User with a fresh id and creation timestamp, ready to
// be passed to Store.Add once its password has been hashed.
func NewUser(displayName, username, passwordHash string, role Role) User {
	return User{
		ID:           uuid.NewString(),
		DisplayName:  displayName,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    nowMillis(),
	}
}

// Store is the credential store: an in-memory user map with optional
// atomic JSON persistence, guarded by a readers-writer lock so concurrent
// logins don't serialize on each other.
type Store struct {
	mu          sync.RWMutex
	users       map[string]User
	persistPath string
}

// NewStore creates an in-memory store with no persistence.
func NewStore() *Store {
	return &Store{users: make(map[string]User)}
}

// NewStoreWithPersistence creates a store backed by a JSON file at path.
// If the file exists and parses, it seeds the in-memory map; a missing or
// unparsable file leaves the store empty (treated as first run).
func NewStoreWithPersistence(path string) *Store {
	s := &Store{users: make(map[string]User), persistPath: path}
	s.load()
	return s
}

func (s *Store) load() {
	if s.persistPath == "" {
		return
	}
	data, err := os.ReadFile(s.persistPath)
	if err != nil {
		return
	}
	var users map[string]User
	if err := json.Unmarshal(data, &users); err != nil {
		return
	}
	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
}

// persist writes the full user map to disk via a temp-file-then-rename so
// readers never observe a partially written file.
func (s *Store) persist() error {
	if s.persistPath == "" {
		return nil
	}
	s.mu.RLock()
	data, err := json.MarshalIndent(s.users, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return writeFileAtomic(s.persistPath, data)
}

// writeFileAtomic writes data to path via a temp file in the same
// directory followed by an atomic rename, defeating partial-write
// corruption on crash.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// Add inserts a new user, failing with ErrDuplicateUsername if any
// existing user shares its (case-sensitive) username.
func (s *Store) Add(u User) error {
	s.mu.Lock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			s.mu.Unlock()
			return ErrDuplicateUsername
		}
	}
	s.users[u.ID] = u
	s.mu.Unlock()

	return s.persist()
}

// GetByID returns a full user record, or false if id is absent.
func (s *Store) GetByID(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// GetByUsername returns a full user record, or false if no user has that
// username.
func (s *Store) GetByUsername(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, true
		}
	}
	return User{}, false
}

// UpdateLastLogin stamps the current wall-clock time on the given user.
func (s *Store) UpdateLastLogin(id string) error {
	s.mu.Lock()
	u, ok := s.users[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	now := nowMillis()
	u.LastLoginAt = &now
	s.users[id] = u
	s.mu.Unlock()

	return s.persist()
}

// UpdateRole changes a user's role.
func (s *Store) UpdateRole(id string, role Role) error {
	s.mu.Lock()
	u, ok := s.users[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	u.Role = role
	s.users[id] = u
	s.mu.Unlock()

	return s.persist()
}

// UpdatePasswordHash replaces a user's stored password hash.
func (s *Store) UpdatePasswordHash(id, hash string) error {
	s.mu.Lock()
	u, ok := s.users[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	s.mu.Unlock()

	return s.persist()
}

// Remove deletes a user, reporting whether anything was removed.
func (s *Store) Remove(id string) (bool, error) {
	s.mu.Lock()
	_, ok := s.users[id]
	if ok {
		delete(s.users, id)
	}
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, s.persist()
}

// List returns a snapshot of every user in the store.
func (s *Store) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out
}

// HasAny reports whether the store holds at least one user.
func (s *Store) HasAny() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users) > 0
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
