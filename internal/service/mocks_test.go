package service

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"
	"ignist/internal/models"
	"ignist/internal/store"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == "" {
		user.ID = "generated-id"
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockPublicationRepository struct {
	mock.Mock
}

func (m *MockPublicationRepository) Create(ctx context.Context, pub *models.Publication) error {
	args := m.Called(ctx, pub)
	if args.Error(0) == nil && pub.ID == "" {
		pub.ID = "new-pub"
	}
	return args.Error(0)
}

func (m *MockPublicationRepository) GetByID(ctx context.Context, pubID, userID string) (*models.Publication, error) {
	args := m.Called(ctx, pubID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Publication), args.Error(1)
}

func (m *MockPublicationRepository) FindByID(ctx context.Context, pubID string) (*models.Publication, error) {
	args := m.Called(ctx, pubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Publication), args.Error(1)
}

func (m *MockPublicationRepository) List(ctx context.Context) ([]models.Publication, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Publication), args.Error(1)
}

func (m *MockPublicationRepository) Upsert(ctx context.Context, pub *models.Publication) error {
	args := m.Called(ctx, pub)
	return args.Error(0)
}

func (m *MockPublicationRepository) Delete(ctx context.Context, pubID, userID string) error {
	args := m.Called(ctx, pubID, userID)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(user *models.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, publicationID, fileName string, file io.Reader, size int64) (string, string, string, error) {
	args := m.Called(ctx, publicationID, fileName, file, size)
	return args.String(0), args.String(1), args.String(2), args.Error(3)
}

func (m *MockStorage) Delete(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

// plainHasher is a transparent PasswordHasher for tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Verify(hash, password string) bool { return hash == "hashed:"+password }

// memoryUsers is an in-memory UserRepository with version checks, used to
// exercise multi-step flows.
type memoryUsers struct {
	mu      sync.Mutex
	byID    map[string]models.User
	updates int
}

func newMemoryUsers(users ...models.User) *memoryUsers {
	m := &memoryUsers{byID: map[string]models.User{}}
	for _, u := range users {
		if u.Version == 0 {
			u.Version = 1
		}
		m.byID[u.ID] = u
	}
	return m
}

func (m *memoryUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return store.ErrAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	user.Version = 1
	m.byID[user.ID] = *user
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memoryUsers) List(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryUsers) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	if cur.Version != user.Version {
		return store.ErrPreconditionFailed
	}
	user.Version++
	m.byID[user.ID] = *user
	m.updates++
	return nil
}

func (m *memoryUsers) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[userID]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, userID)
	return nil
}
