package services

import (
	"context"
	"fmt"
	"sync"
)

// MockS3Service is an in-memory S3Interface for tests
type MockS3Service struct {
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewMockS3Service creates an empty in-memory store
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		objects: make(map[string][]byte),
	}
}

// PutObject stores a copy of body under key
func (m *MockS3Service) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	stored := make([]byte, len(body))
	copy(stored, body)

	m.mu.Lock()
	m.objects[key] = stored
	m.mu.Unlock()
	return nil
}

// PresignGet returns a fake presigned URL for stored keys
func (m *MockS3Service) PresignGet(ctx context.Context, key string) (string, error) {
	if !m.Exists(key) {
		return "", fmt.Errorf("object not found in mock S3: %s", key)
	}
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// DeleteObject removes key
func (m *MockS3Service) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Exists reports whether key is stored
func (m *MockS3Service) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// Keys returns every stored key
func (m *MockS3Service) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
