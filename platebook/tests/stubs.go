package tests

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// memStore keeps uploaded objects in memory so tests never need a real
// object storage server.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = content
	return nil
}

func (s *memStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %v not found", key)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStore) DeletePrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
		}
	}
	return nil
}

func (s *memStore) PresignedURL(ctx context.Context, key string) (string, error) {
	return "https://storage.test/" + key + "?signed", nil
}

func (s *memStore) numObjects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type memMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *memMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *memMailer) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail{}, m.sent...)
}
