package service

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/mail"
	"strings"

	"blobby/internal/models"
	"blobby/internal/repository"
)

// AccountService implements registration-adjacent profile logic: email
// normalization, avatar derivation, and profile edits.
type AccountService struct {
	userRepo repository.UserRepository
}

type UpdateProfileInput struct {
	UserID   uint
	Username string
	Email    string
}

func NewAccountService(userRepo repository.UserRepository) *AccountService {
	return &AccountService{userRepo: userRepo}
}

// NormalizeEmail lower-cases and trims an address. All storage and lookup
// goes through this, which is what makes email uniqueness
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address is well-formed.
func ValidateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return models.NewValidationError("Please enter a valid email address")
	}
	return nil
}

// GravatarURL derives the avatar for an email the way the gravatar
// service expects: sha256 of the normalized address.
func GravatarURL(email string) string {
	sum := sha256.Sum256([]byte(NormalizeEmail(email)))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=retro&s=100&r=g", sum)
}

// UpdateProfile changes username and email, enforcing email uniqueness
// against every other account.
func (s *AccountService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.Username == "" || in.Email == "" {
		return nil, models.NewValidationError("Username and email are required")
	}
	if err := ValidateEmail(in.Email); err != nil {
		return nil, err
	}

	email := NormalizeEmail(in.Email)
	taken, err := s.userRepo.EmailTaken(ctx, email, in.UserID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("This email is already in use by another account")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	user.Username = in.Username
	user.Email = email
	user.AvatarURL = GravatarURL(email)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
