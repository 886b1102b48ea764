package tokenstore

import "sync"

// Default storage keys.
const (
	DefaultTokenKey        = "semcontext_token"
	DefaultRefreshTokenKey = "semcontext_refresh_token"
)

// Storage holds an access token and a refresh token in independent slots.
type Storage interface {
	Token() (string, bool)
	SetToken(token string)
	RemoveToken()
	RefreshToken() (string, bool)
	SetRefreshToken(token string)
	RemoveRefreshToken()
	// Clear empties both slots.
	Clear()
}

// Memory is a Storage that lives for the process lifetime.
type Memory struct {
	mu           sync.RWMutex
	token        string
	refreshToken string
}

// NewMemory creates an empty in-memory Storage.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *Memory) SetToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *Memory) RemoveToken() {
	m.SetToken("")
}

func (m *Memory) RefreshToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshToken, m.refreshToken != ""
}

func (m *Memory) SetRefreshToken(token string) {
	m.mu.Lock()
	m.refreshToken = token
	m.mu.Unlock()
}

func (m *Memory) RemoveRefreshToken() {
	m.SetRefreshToken("")
}

func (m *Memory) Clear() {
	m.mu.Lock()
	m.token, m.refreshToken = "", ""
	m.mu.Unlock()
}

var _ Storage = (*Memory)(nil)
