package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/schoolping/schoolping-backend/internal/apierr"
	"github.com/schoolping/schoolping-backend/internal/caller"
	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/repos"
)

type JWTClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type AuthService interface {
	// Login verifies credentials and issues an access token carrying the
	// user's id and role. Bad email and bad password are reported
	// identically.
	Login(ctx context.Context, email, password string) (string, caller.Context, error)
	ParseToken(tokenString string) (caller.Context, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, caller.Context, error) {
	if email == "" {
		return "", caller.Context{}, apierr.Validation("email")
	}
	if password == "" {
		return "", caller.Context{}, apierr.Validation("password")
	}

	users, err := s.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return "", caller.Context{}, apierr.Upstream("load user", err)
	}
	if len(users) == 0 || users[0] == nil {
		return "", caller.Context{}, apierr.Unauthenticated()
	}
	user := users[0]

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", caller.Context{}, apierr.Unauthenticated()
	}

	role, err := s.userRepo.GetRoleName(ctx, nil, user.ID)
	if err != nil {
		return "", caller.Context{}, apierr.Upstream("load role", err)
	}

	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		Role: role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecretKey))
	if err != nil {
		return "", caller.Context{}, apierr.Upstream("sign token", err)
	}

	clr := caller.Context{UserID: user.ID, Role: role}
	s.log.Info("User logged in", "user_id", user.ID, "role", role)
	return token, clr, nil
}

func (s *authService) ParseToken(tokenString string) (caller.Context, error) {
	if tokenString == "" {
		return caller.Context{}, apierr.Unauthenticated()
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return caller.Context{}, apierr.Unauthenticated()
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok {
		return caller.Context{}, apierr.Unauthenticated()
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return caller.Context{}, apierr.Unauthenticated()
	}
	return caller.Context{UserID: userID, Role: claims.Role}, nil
}
