package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/courtside-club/courtside-server/models"
	"github.com/courtside-club/courtside-server/repositories"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// AuthService выполняет регистрацию и вход администраторов клуба.
type AuthService struct {
	adminRepo repositories.AdminRepository
	logger    *slog.Logger
}

func NewAuthService(adminRepo repositories.AdminRepository, logger *slog.Logger) *AuthService {
	return &AuthService{adminRepo: adminRepo, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, clubID, email, name, password string) (*models.Admin, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, validationErr(ErrValidationFailed, "a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, validationErr(ErrPasswordTooShort, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{
		ClubID:       clubID,
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrAdminEmailConflict) {
			return nil, ErrAdminEmailConflict
		}
		return nil, err
	}

	s.logger.Info("admin registered",
		slog.String("admin_id", admin.ID),
		slog.String("club_id", admin.ClubID))
	return admin, nil
}

// Login verifies credentials. Wrong email and wrong password both map to
// ErrInvalidCredentials so callers cannot tell which one failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Admin, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

func (s *AuthService) GetAdmin(ctx context.Context, id string) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}
