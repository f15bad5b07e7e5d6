package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/telehealth-api/internal/models"
	"github.com/harentsoaR/telehealth-api/internal/repository"
	"github.com/harentsoaR/telehealth-api/internal/utils"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, patch models.ProfilePatch) (*models.User, error)
}

type RegisterCommand struct {
	FullName       string
	Email          string
	Password       string
	Role           string
	Phone          string
	Specialization string
}

type AuthService struct {
	users  UserStore
	tokens *utils.TokenManager
	log    *zap.Logger
}

func NewAuthService(users UserStore, tokens *utils.TokenManager, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

func (s *AuthService) Register(ctx context.Context, cmd RegisterCommand) (*models.User, error) {
	role := cmd.Role
	if role == "" {
		role = models.RolePatient
	}
	ve := &ValidationError{}
	if role != models.RolePatient && role != models.RoleDoctor {
		ve.add(fmt.Sprintf("role: must be %q or %q", models.RolePatient, models.RoleDoctor))
	}
	if role == models.RoleDoctor && strings.TrimSpace(cmd.Specialization) == "" {
		ve.add("specialization: is required for doctors")
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		FullName: strings.TrimSpace(cmd.FullName),
		Email:    strings.ToLower(strings.TrimSpace(cmd.Email)),
		Password: hashed,
		Role:     role,
		Phone:    cmd.Phone,
	}
	if role == models.RoleDoctor {
		user.Specialization = strings.TrimSpace(cmd.Specialization)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	s.log.Info("user registered", zap.String("userId", user.ID.Hex()), zap.String("role", role))
	return user, nil
}

// Login returns a signed token and the user on valid credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(password, user.Password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID.Hex(), user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("generating token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) Profile(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile changes the caller's own profile. Specialization only applies
// to doctors.
func (s *AuthService) UpdateProfile(ctx context.Context, id primitive.ObjectID, patch models.ProfilePatch) (*models.User, error) {
	ve := &ValidationError{}
	if patch.FullName == nil && patch.Phone == nil && patch.Specialization == nil {
		ve.add("no fields to update")
	}
	if patch.FullName != nil && strings.TrimSpace(*patch.FullName) == "" {
		ve.add("fullName: must not be empty")
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	if patch.Specialization != nil {
		current, err := s.Profile(ctx, id)
		if err != nil {
			return nil, err
		}
		if !current.IsDoctor() {
			return nil, &ValidationError{Fields: []string{"specialization: only doctors have a specialization"}}
		}
	}

	user, err := s.users.UpdateProfile(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
