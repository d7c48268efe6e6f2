package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	appErrors "github.com/storefrontlabs/storefront-api/internal/errors"
	"github.com/storefrontlabs/storefront-api/internal/models"
	repository "github.com/storefrontlabs/storefront-api/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Refresh(ctx context.Context, req *models.RefreshRequest) (*models.TokenPair, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error)
}

type TokenConfig struct {
	Key        []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type userService struct {
	repo      repository.UserRepository
	rateLimit repository.RateLimitRepository
	tokens    TokenConfig
}

func NewUserService(repo repository.UserRepository, rateLimit repository.RateLimitRepository, tokens TokenConfig) UserService {
	return &userService{
		repo:      repo,
		rateLimit: rateLimit,
		tokens:    tokens,
	}
}

func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.InternalError("Failed to secure password").WithError(err)
	}

	user := &models.User{
		Email:     req.Email,
		Password:  string(hashedPassword),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.RoleUser,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {

		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, appErrors.DuplicateEntryError("Email already registered")
		}

		return nil, appErrors.DatabaseError("Failed to create user").WithError(err)
	}

	tokens, err := s.issueTokenPair(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{User: user, Tokens: tokens}, nil
}

// Login deliberately reports the same message for an unknown email and a
// wrong password, so the endpoint cannot be used to enumerate users.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {

	allowed, remaining, retryAfter, err := s.rateLimit.CheckLoginRateLimit(ctx, req.Email)
	if err != nil {
		return nil, appErrors.ThirdPartyError("Rate limit check failed").WithError(err)
	}

	if !allowed {
		return &models.LoginResponse{
			Success:    false,
			Message:    "Too many login attempts. Please try again later.",
			RetryAfter: retryAfter,
		}, nil
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return &models.LoginResponse{
			Success:        false,
			Message:        "Invalid email or password",
			RemainingTries: remaining,
		}, nil
	}

	tokens, err := s.issueTokenPair(user)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		Success: true,
		Tokens:  tokens,
	}, nil
}

// Refresh validates a refresh-typed token and issues a fresh pair.
func (s *userService) Refresh(ctx context.Context, req *models.RefreshRequest) (*models.TokenPair, error) {

	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(req.RefreshToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}

		return s.tokens.Key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))

	if err != nil || !token.Valid {
		return nil, appErrors.UnauthorizedError("Invalid or expired refresh token")
	}

	if claims.TokenType != models.TokenTypeRefresh {
		return nil, appErrors.UnauthorizedError("Invalid refresh token")
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.UnauthorizedError("Invalid refresh token").WithError(err)
	}

	return s.issueTokenPair(user)
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, appErrors.NotFoundError("User not found").WithError(err)
	}

	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("User not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch user").WithError(err)
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}

	if req.LastName != nil {
		user.LastName = *req.LastName
	}

	if req.Email != nil {
		user.Email = *req.Email
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {

		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, appErrors.DuplicateEntryError("Email already registered")
		}

		return nil, appErrors.DatabaseError("Failed to update profile").WithError(err)
	}

	return user, nil
}

func (s *userService) issueTokenPair(user *models.User) (*models.TokenPair, error) {

	accessToken, err := s.signToken(user, models.TokenTypeAccess, s.tokens.AccessTTL)
	if err != nil {
		return nil, appErrors.InternalError("Failed to generate authentication token").WithError(err)
	}

	refreshToken, err := s.signToken(user, models.TokenTypeRefresh, s.tokens.RefreshTTL)
	if err != nil {
		return nil, appErrors.InternalError("Failed to generate refresh token").WithError(err)
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.tokens.AccessTTL.Seconds()),
	}, nil
}

func (s *userService) signToken(user *models.User, tokenType string, ttl time.Duration) (string, error) {

	now := time.Now()

	claims := &models.Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.tokens.Key)
}
