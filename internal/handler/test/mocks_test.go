package test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"ignist/internal/models"
	"ignist/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req service.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAuthService) ConfirmPasswordReset(ctx context.Context, email, secret, newPassword string) error {
	args := m.Called(ctx, email, secret, newPassword)
	return args.Error(0)
}

func (m *MockAuthService) UpdatePassword(ctx context.Context, email, oldPassword, newPassword, confirmPassword string) error {
	args := m.Called(ctx, email, oldPassword, newPassword, confirmPassword)
	return args.Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, currentEmail string, patch service.ProfilePatch) (*models.ServiceResponse, error) {
	args := m.Called(ctx, currentEmail, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceResponse), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockPublicationService struct {
	mock.Mock
}

func (m *MockPublicationService) GetAll(ctx context.Context) ([]models.Publication, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Publication), args.Error(1)
}

func (m *MockPublicationService) GetByID(ctx context.Context, id, userID string) (*models.Publication, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Publication), args.Error(1)
}

func (m *MockPublicationService) GetLatest(ctx context.Context) (*models.Publication, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Publication), args.Error(1)
}

func (m *MockPublicationService) Create(ctx context.Context, req service.PublicationRequest, callerID string) (*models.Publication, error) {
	args := m.Called(ctx, req, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Publication), args.Error(1)
}

func (m *MockPublicationService) Update(ctx context.Context, id string, req service.PublicationRequest) (*models.Publication, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Publication), args.Error(1)
}

func (m *MockPublicationService) Delete(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockPublicationService) AddAttachment(ctx context.Context, id, userID, fileName string, file io.Reader, size int64) (*models.Attachment, error) {
	args := m.Called(ctx, id, userID, fileName, file, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attachment), args.Error(1)
}

func (m *MockPublicationService) DeleteAttachment(ctx context.Context, id, userID, attachmentID string) error {
	args := m.Called(ctx, id, userID, attachmentID)
	return args.Error(0)
}

type MockHealth struct {
	mock.Mock
}

func (m *MockHealth) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
