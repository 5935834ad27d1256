package mocks

import (
	"context"

	"moments/internal/docstore"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, collection string, data map[string]any) (docstore.Document, error) {
	args := m.Called(ctx, collection, data)
	return args.Get(0).(docstore.Document), args.Error(1)
}

func (m *MockStore) Set(ctx context.Context, collection, id string, data map[string]any) (docstore.Document, error) {
	args := m.Called(ctx, collection, id, data)
	return args.Get(0).(docstore.Document), args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	args := m.Called(ctx, collection, id)
	return args.Get(0).(docstore.Document), args.Error(1)
}

func (m *MockStore) Merge(ctx context.Context, collection, id string, patch map[string]any) error {
	args := m.Called(ctx, collection, id, patch)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

func (m *MockStore) Query(ctx context.Context, q docstore.Query) (docstore.Snapshot, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(docstore.Snapshot), args.Error(1)
}

func (m *MockStore) Subscribe(ctx context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	args := m.Called(ctx, q, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(docstore.Subscription), args.Error(1)
}

// MockSubscription records Unsubscribe calls.
type MockSubscription struct {
	mock.Mock
}

func (m *MockSubscription) Unsubscribe() {
	m.Called()
}
