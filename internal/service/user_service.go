package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/repository"
)

// ErrEmailTaken is returned when a signup targets an existing email.
var ErrEmailTaken = errors.New("email already registered")

// UserService handles account creation and profile management.
type UserService struct {
	userRepo *repository.UserRepository
	auth     *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository, auth *AuthService) *UserService {
	return &UserService{userRepo: userRepo, auth: auth}
}

// Signup creates a password-based account.
func (s *UserService) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login validates email + password and returns the account.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// LoginWithGoogle finds or provisions the account matching a verified
// Google identity. An existing password account with the same email gets
// the Google subject linked; otherwise a passwordless account is created.
func (s *UserService) LoginWithGoogle(ctx context.Context, identity *GoogleIdentity) (*model.User, error) {
	user, err := s.userRepo.GetByGoogleSub(ctx, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup google sub: %w", err)
	}

	user, err = s.userRepo.GetByEmail(ctx, identity.Email)
	if err == nil {
		if err := s.userRepo.LinkGoogleSub(ctx, user.ID, identity.Subject); err != nil {
			return nil, fmt.Errorf("link google sub: %w", err)
		}
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	sub := identity.Subject
	user = &model.User{
		Email:     identity.Email,
		Name:      identity.Name,
		Role:      model.RoleUser,
		GoogleSub: &sub,
	}
	if identity.Picture != "" {
		pic := identity.Picture
		user.AvatarURL = &pic
	}
	if user.Name == "" {
		user.Name = identity.Email
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create google user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by id.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile updates a user's profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, id int, req *model.UpdateProfileRequest) (*model.User, error) {
	return s.userRepo.UpdateProfile(ctx, id, req)
}

// List retrieves users with pagination.
func (s *UserService) List(ctx context.Context, page, perPage int) ([]model.User, int64, error) {
	return s.userRepo.List(ctx, page, perPage)
}
