package repository

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/stretchr/testify/mock"
	"ignist/internal/store"
)

type MockContainer struct {
	mock.Mock
}

func (m *MockContainer) Name() string {
	return "mock"
}

// Get and Query copy args.Get(0) into out through JSON.
func (m *MockContainer) Get(ctx context.Context, id, partitionKey string, out any) error {
	args := m.Called(ctx, id, partitionKey)
	if err := args.Error(1); err != nil {
		return err
	}
	return fill(args.Get(0), out)
}

func (m *MockContainer) Query(ctx context.Context, filter store.Filter, out any) error {
	args := m.Called(ctx, filter)
	if err := args.Error(1); err != nil {
		return err
	}
	return fill(args.Get(0), out)
}

func (m *MockContainer) Create(ctx context.Context, partitionKey string, doc store.Document) error {
	args := m.Called(ctx, partitionKey, doc)
	if args.Error(0) == nil {
		doc.SetDocumentVersion(1)
	}
	return args.Error(0)
}

func (m *MockContainer) Upsert(ctx context.Context, partitionKey string, doc store.Document) error {
	args := m.Called(ctx, partitionKey, doc)
	if args.Error(0) == nil {
		doc.SetDocumentVersion(doc.DocumentVersion() + 1)
	}
	return args.Error(0)
}

func (m *MockContainer) Replace(ctx context.Context, partitionKey string, doc store.Document) error {
	args := m.Called(ctx, partitionKey, doc)
	if args.Error(0) == nil {
		doc.SetDocumentVersion(doc.DocumentVersion() + 1)
	}
	return args.Error(0)
}

func (m *MockContainer) Delete(ctx context.Context, id, partitionKey string) error {
	args := m.Called(ctx, id, partitionKey)
	return args.Error(0)
}

func (m *MockContainer) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func fill(src, out any) error {
	if src == nil {
		return nil
	}
	if reflect.TypeOf(src) == reflect.TypeOf(out).Elem() {
		reflect.ValueOf(out).Elem().Set(reflect.ValueOf(src))
		return nil
	}
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
