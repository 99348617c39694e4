package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cashflow/internal/models"
	"cashflow/internal/repository"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*models.User{}}
}

func (m *memUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) UpdateProfile(ctx context.Context, id string, req *models.UpdateUserRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if req.Email != nil {
		for _, other := range m.users {
			if other.ID != id && other.Email == *req.Email {
				return repository.ErrDuplicateEmail
			}
		}
		u.Email = *req.Email
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Surname != nil {
		u.Surname = *req.Surname
	}
	if req.Photo != nil {
		u.Photo = *req.Photo
	}
	return nil
}

func (m *memUserRepo) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memUserRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type memResetCodeRepo struct {
	mu    sync.Mutex
	codes []*models.ResetCode

	// markedUsed records every code flagged used before deletion.
	markedUsed []string
	deleteErr  error
}

func (m *memResetCodeRepo) Create(ctx context.Context, code *models.ResetCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	m.codes = append(m.codes, &cp)
	return nil
}

func (m *memResetCodeRepo) FindUnusedByCode(ctx context.Context, code string) (*models.ResetCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.ResetCode
	for _, c := range m.codes {
		if c.Code == code && !c.Used && (found == nil || !c.CreatedAt.Before(found.CreatedAt)) {
			found = c
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *memResetCodeRepo) RetireAllForUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var kept []*models.ResetCode
	var n int64
	for _, c := range m.codes {
		if c.UserID == userID {
			c.Used = true
			m.markedUsed = append(m.markedUsed, c.ID)
			n++
			continue
		}
		kept = append(kept, c)
	}
	m.codes = kept
	return n, nil
}

func (m *memResetCodeRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.ResetCode
	var n int64
	for _, c := range m.codes {
		if c.ExpiresAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	m.codes = kept
	return n, nil
}

func (m *memResetCodeRepo) forUser(userID string) []models.ResetCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ResetCode
	for _, c := range m.codes {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out
}

type sentMail struct {
	To, Subject, Body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (r *recordingMailer) Send(to string, subject string, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (r *recordingMailer) last() sentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return sentMail{}
	}
	return r.sent[len(r.sent)-1]
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// sequenceCodes hands out 100001, 100002, ... so tests know every code.
func sequenceCodes() func() (string, error) {
	var mu sync.Mutex
	n := 100000
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%06d", n), nil
	}
}

type memPhotoStore struct {
	objects map[string][]byte
	err     error
}

func (m *memPhotoStore) Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = b
	return "https://cdn.example.com/" + key, nil
}

var errBoom = errors.New("boom")
