package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/todo-api-nosql/internal/domain"
)

type RegistrationStore struct {
	mu      sync.Mutex
	records map[string]domain.PendingRegistration
}

func NewRegistrationStore() *RegistrationStore {
	return &RegistrationStore{records: map[string]domain.PendingRegistration{}}
}

func notFound(email string) error {
	return fmt.Errorf("registration %s: %w", email, domain.ErrNotFound)
}

func (s *RegistrationStore) Put(_ context.Context, p *domain.PendingRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[p.Email] = *p
	return nil
}

func (s *RegistrationStore) Get(_ context.Context, email string) (*domain.PendingRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[email]
	if !ok {
		return nil, notFound(email)
	}
	return &p, nil
}

func (s *RegistrationStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, email)
	return nil
}

func (s *RegistrationStore) IncrementAttempts(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[email]
	if !ok {
		return 0, notFound(email)
	}
	p.Attempts++
	s.records[email] = p
	return p.Attempts, nil
}

func (s *RegistrationStore) MarkVerified(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[email]
	if !ok || p.Code != code || p.Verified {
		return notFound(email)
	}
	p.Verified = true
	s.records[email] = p
	return nil
}

func (s *RegistrationStore) ResetVerified(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[email]
	if !ok {
		return notFound(email)
	}
	p.Verified = false
	s.records[email] = p
	return nil
}

func (s *RegistrationStore) Reissue(_ context.Context, email, code string, expiresAt int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[email]
	if !ok {
		return notFound(email)
	}
	p.Code = code
	p.ExpiresAt = expiresAt
	p.Attempts = 0
	p.Verified = false
	p.LastResendAt = &now
	s.records[email] = p
	return nil
}

func (s *RegistrationStore) ListExpired(_ context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var emails []string
	for email, p := range s.records {
		if p.ExpiresAt < now.Unix() {
			emails = append(emails, email)
		}
	}
	sort.Strings(emails)
	return emails, nil
}
