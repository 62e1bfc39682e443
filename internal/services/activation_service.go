package services

import (
	"errors"
	"fmt"
	"log"

	"qrific/internal/models"
	"qrific/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// ActivationService handles the printed-QR activation flow: a buyer scans
// the code on the shirt tag, proves possession with the activation code, and
// gets a wearer account bound to that shirt.
type ActivationService struct {
	qrRepo   repositories.QRCodeRepository
	userRepo repositories.UserRepository
}

// NewActivationService creates a new ActivationService.
func NewActivationService(qrRepo repositories.QRCodeRepository, userRepo repositories.UserRepository) *ActivationService {
	return &ActivationService{
		qrRepo:   qrRepo,
		userRepo: userRepo,
	}
}

// ValidateCode checks that the activation code and shirt id identify a
// purchased shirt that has not been activated yet.
func (s *ActivationService) ValidateCode(activationCode, shirtID string) error {
	_, err := s.qrRepo.FindActivatable(activationCode, shirtID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: shirt %s", ErrActivationNotFound, shirtID)
		}
		return err
	}
	return nil
}

// Activate claims the shirt: it creates the wearer account with a hashed
// password and marks the QR code activated, atomically.
func (s *ActivationService) Activate(activationCode, shirtID, userEmail, password string) error {
	qr, err := s.qrRepo.FindActivatable(activationCode, shirtID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: shirt %s", ErrActivationNotFound, shirtID)
		}
		return err
	}

	if existing, err := s.userRepo.GetByEmail(userEmail); err == nil && existing != nil {
		return fmt.Errorf("email '%s' already registered", userEmail)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:    userEmail,
		Password: string(hashedPassword),
	}
	if err := s.qrRepo.ActivateForUser(qr, user); err != nil {
		return fmt.Errorf("failed to activate shirt %s: %w", shirtID, err)
	}

	log.Printf("Shirt %s activated for %s", shirtID, userEmail)
	return nil
}
