package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"anoa.com/devconnector/internal/entity"
	"anoa.com/devconnector/internal/modules/user/dto"
	"anoa.com/devconnector/internal/modules/user/repository"
	"anoa.com/devconnector/pkg/apperror"
	"anoa.com/devconnector/pkg/gravatar"
	"anoa.com/devconnector/pkg/token"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errUserExists         = apperror.NewFieldErrors(http.StatusBadRequest, apperror.ErrConflict, apperror.FieldError{Msg: "User already exists"})
	errInvalidCredentials = apperror.NewFieldErrors(http.StatusBadRequest, apperror.ErrUnauthorized, apperror.FieldError{Msg: "Invalid credentials"})
	errPasswordTooLong    = apperror.NewFieldErrors(http.StatusBadRequest, apperror.ErrBadRequest, apperror.FieldError{Param: "password", Msg: "Please enter a password with 72 or fewer bytes"})
)

type UserService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.TokenResponse, error)
	Authenticate(ctx context.Context, input dto.LoginInput) (*dto.TokenResponse, error)
	GetCurrent(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}

type userService struct {
	repo       repository.UserRepository
	tokens     *token.Service
	bcryptCost int
}

func NewUserService(repo repository.UserRepository, tokens *token.Service, bcryptCost int) UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

func (s *userService) Register(ctx context.Context, input dto.RegisterInput) (*dto.TokenResponse, error) {
	email := normalizeEmail(input.Email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, errUserExists
	}

	// The binding counts characters; bcrypt caps the byte length.
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, errPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: string(hashed),
		Avatar:   gravatar.URL(email),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issue(user.ID)
}

func (s *userService) Authenticate(ctx context.Context, input dto.LoginInput) (*dto.TokenResponse, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	return s.issue(user.ID)
}

// GetCurrent loads the user behind a verified token. A missing row means the
// account was deleted while the token was still valid.
func (s *userService) GetCurrent(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("token subject %s has no user: %w", userID, apperror.ErrInternal)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *userService) issue(userID uuid.UUID) (*dto.TokenResponse, error) {
	tok, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &dto.TokenResponse{Token: tok}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
