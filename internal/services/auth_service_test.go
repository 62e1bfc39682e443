package services_test

import (
	"fmt"
	"testing"

	"qrific/internal/models"
	"qrific/internal/repositories"
	"qrific/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewAuthService(mockRepo, "test-secret")

	user := &models.User{Email: "ops@example.com", Password: "plaintext"}

	mockRepo.On("GetByEmail", "ops@example.com").
		Return(nil, fmt.Errorf("user with email ops@example.com: %w", repositories.ErrNotFound)).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := service.RegisterUser(user)

	assert.NoError(t, err)
	assert.NotEqual(t, "plaintext", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("plaintext")))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_EmailTaken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewAuthService(mockRepo, "test-secret")

	existing := &models.User{ID: "user-1", Email: "ops@example.com"}
	mockRepo.On("GetByEmail", "ops@example.com").Return(existing, nil).Once()

	err := service.RegisterUser(&models.User{Email: "ops@example.com", Password: "plaintext"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewAuthService(mockRepo, "test-secret")

	hashed, err := bcrypt.GenerateFromPassword([]byte("plaintext"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	user := &models.User{ID: "user-1", Email: "ops@example.com", Password: string(hashed)}

	mockRepo.On("GetByEmail", "ops@example.com").Return(user, nil).Once()

	token, err := service.LoginUser("ops@example.com", "plaintext")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "ops@example.com", claims["email"])
}

func TestAuthService_LoginUser_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewAuthService(mockRepo, "test-secret")

	hashed, err := bcrypt.GenerateFromPassword([]byte("plaintext"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	user := &models.User{ID: "user-1", Email: "ops@example.com", Password: string(hashed)}

	mockRepo.On("GetByEmail", "ops@example.com").Return(user, nil).Once()

	_, err = service.LoginUser("ops@example.com", "wrong")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestAuthService_ValidateToken_WrongSecret(t *testing.T) {
	mockRepo := new(MockUserRepository)
	issuer := services.NewAuthService(mockRepo, "issuer-secret")
	verifier := services.NewAuthService(mockRepo, "other-secret")

	hashed, err := bcrypt.GenerateFromPassword([]byte("plaintext"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	user := &models.User{ID: "user-1", Email: "ops@example.com", Password: string(hashed)}
	mockRepo.On("GetByEmail", "ops@example.com").Return(user, nil).Once()

	token, err := issuer.LoginUser("ops@example.com", "plaintext")
	assert.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

