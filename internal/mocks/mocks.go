// Package mocks holds testify mocks for the service layer's storage seams.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockImageStore is a mock implementation of service.ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(ctx context.Context, data []byte, contentType, ext string) (string, error) {
	args := m.Called(ctx, data, contentType, ext)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockImageStore) URL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

// MockTokenRevoker is a mock implementation of service.TokenRevoker
type MockTokenRevoker struct {
	mock.Mock
}

func (m *MockTokenRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}
