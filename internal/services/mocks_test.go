package services_test

import (
	"sync"
	"time"

	"qrific/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(order *models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetAll() ([]models.Order, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	args := m.Called(orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByPaymentIntentID(paymentIntentID string) (*models.Order, error) {
	args := m.Called(paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByEmailAndNumber(email, orderNumber string) (*models.Order, error) {
	args := m.Called(email, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) ExistsByOrderNumber(orderNumber string) (bool, error) {
	args := m.Called(orderNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkFailed(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SetQRGenerated(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockOrderRepository) LinkItemQRCode(itemID, qrCodeID string) error {
	args := m.Called(itemID, qrCodeID)
	return args.Error(0)
}

func (m *MockOrderRepository) FindStalePending(olderThan time.Duration) ([]models.Order, error) {
	args := m.Called(olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

// MockQRCodeRepository is a mock implementation of repositories.QRCodeRepository
type MockQRCodeRepository struct {
	mock.Mock
}

func (m *MockQRCodeRepository) Create(qr *models.QRCode) error {
	args := m.Called(qr)
	return args.Error(0)
}

func (m *MockQRCodeRepository) GetByOrderNumber(orderNumber string) ([]models.QRCode, error) {
	args := m.Called(orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QRCode), args.Error(1)
}

func (m *MockQRCodeRepository) GetByURLCode(urlCode string) (*models.QRCode, error) {
	args := m.Called(urlCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QRCode), args.Error(1)
}

func (m *MockQRCodeRepository) FindActivatable(activationCode, shirtID string) (*models.QRCode, error) {
	args := m.Called(activationCode, shirtID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QRCode), args.Error(1)
}

func (m *MockQRCodeRepository) ActivateForUser(qr *models.QRCode, user *models.User) error {
	args := m.Called(qr, user)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// fakeSender records sent mail instead of delivering it.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (f *fakeSender) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeSender) sentMails() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMail, len(f.sent))
	copy(out, f.sent)
	return out
}
