package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"

	"github.com/nicolaananda/barber-pos-sub000/internal/config"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/phone"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type AuthService struct {
	Config       config.Config
	Users        UserStore
	Logger       *slog.Logger
	FirebaseAuth *fbauth.Client
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         domain.User
	ExpiresAt    time.Time
}

type LoginInput struct {
	Email    string
	Password string
}

// StaffLoginInput is the POS terminal login: phone number plus PIN.
type StaffLoginInput struct {
	Phone string
	PIN   string
}

type GoogleLoginInput struct {
	IDToken string
	Email   string
}

type RefreshInput struct {
	RefreshToken string
}

func (s AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.Users.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active || user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

func (s AuthService) LoginStaff(ctx context.Context, in StaffLoginInput) (*AuthResult, error) {
	p, err := phone.Normalize(in.Phone)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.Users.GetByPhone(ctx, p)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active || user.PinHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PinHash), []byte(in.PIN)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

// LoginWithGoogle signs in an existing account whose email matches a verified
// Google identity. Accounts are never created here.
func (s AuthService) LoginWithGoogle(ctx context.Context, in GoogleLoginInput) (*AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	switch {
	case s.FirebaseAuth != nil:
		tok, err := s.FirebaseAuth.VerifyIDToken(ctx, in.IDToken)
		if err != nil {
			return nil, fmt.Errorf("%w: firebase token: %v", ErrInvalidToken, err)
		}
		if claimed, ok := tok.Claims["email"].(string); ok && claimed != "" {
			email = claimed
		}
	case s.Config.GoogleClientID != "":
		payload, err := idtoken.Validate(ctx, in.IDToken, s.Config.GoogleClientID)
		if err != nil {
			return nil, fmt.Errorf("%w: google token: %v", ErrInvalidToken, err)
		}
		if claimed, ok := payload.Claims["email"].(string); ok && claimed != "" {
			email = claimed
		}
	default:
		return nil, ErrInvalidCredentials
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

func (s AuthService) Refresh(ctx context.Context, in RefreshInput) (*AuthResult, error) {
	token, err := jwt.Parse(in.RefreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.Config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if claims["token_type"] != "refresh" {
		return nil, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrInvalidToken
	}
	return s.issueTokens(user)
}

func (s AuthService) issueTokens(user *domain.User) (*AuthResult, error) {
	now := time.Now()
	accessExp := now.Add(s.Config.AccessTokenTTL)
	refreshExp := now.Add(s.Config.RefreshTokenTTL)

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        strconv.FormatInt(user.ID, 10),
		"email":      user.Email,
		"name":       user.Name,
		"role":       string(user.Role),
		"token_type": "access",
		"exp":        accessExp.Unix(),
		"iat":        now.Unix(),
	}).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, err
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        strconv.FormatInt(user.ID, 10),
		"token_type": "refresh",
		"exp":        refreshExp.Unix(),
		"iat":        now.Unix(),
	}).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         *user,
		ExpiresAt:    accessExp,
	}, nil
}

func ptr[T any](v T) *T { return &v }
