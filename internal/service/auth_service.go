package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type DoctorRepository interface {
	// Create returns domain.ErrDoctorAlreadyExists when the username is taken.
	Create(ctx context.Context, d *domain.Doctor) error
	// GetByUsername returns domain.ErrDoctorNotFound when absent.
	GetByUsername(ctx context.Context, username string) (*domain.Doctor, error)
}

type AuthService struct {
	doctorRepo DoctorRepository
	jwtManager *auth.JWTManager
	bcryptCost int
	metrics    *metrics.Collector
	log        *zap.Logger
}

func NewAuthService(doctorRepo DoctorRepository, jwtManager *auth.JWTManager, bcryptCost int, m *metrics.Collector, log *zap.Logger) *AuthService {
	return &AuthService{
		doctorRepo: doctorRepo,
		jwtManager: jwtManager,
		bcryptCost: bcryptCost,
		metrics:    m,
		log:        log,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return err
	}

	// Checked up front so a taken username is reported without paying for a hash.
	if _, err := s.doctorRepo.GetByUsername(ctx, username); err == nil {
		return domain.ErrDoctorAlreadyExists
	} else if !errors.Is(err, domain.ErrDoctorNotFound) {
		return fmt.Errorf("looking up doctor: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return &ValidationError{Fields: []string{"password must be at most 72 bytes"}}
		}
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.doctorRepo.Create(ctx, &domain.Doctor{Username: username, PasswordHash: string(hash)}); err != nil {
		if errors.Is(err, domain.ErrDoctorAlreadyExists) {
			return err
		}
		s.log.Error("failed to create doctor", zap.Error(err))
		return fmt.Errorf("creating doctor: %w", err)
	}

	s.metrics.DoctorRegistered()
	s.log.Info("doctor registered", zap.String("username", username))
	return nil
}

func (s *AuthService) Login(ctx context.Context, username, password, ip string) (*domain.AccessToken, error) {
	username = strings.TrimSpace(username)

	doctor, err := s.doctorRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrDoctorNotFound) {
			return nil, fmt.Errorf("looking up doctor: %w", err)
		}
		// Hash anyway so response time does not reveal whether the username exists.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
		s.metrics.LoginAttempt(false)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(doctor.PasswordHash), []byte(password)); err != nil {
		s.metrics.LoginAttempt(false)
		s.log.Warn("failed login attempt",
			zap.String("username", username),
			zap.String("ip", ip),
		)
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateAccessToken(doctor.Username)
	if err != nil {
		s.log.Error("failed to generate access token", zap.Error(err))
		return nil, fmt.Errorf("generating token: %w", err)
	}

	s.metrics.LoginAttempt(true)
	s.log.Info("doctor logged in",
		zap.String("username", doctor.Username),
		zap.String("ip", ip),
	)

	return token, nil
}

// ResolveCaller turns a bearer token into the caller's identity. Trust is
// purely cryptographic: the subject is not checked against the doctor store.
func (s *AuthService) ResolveCaller(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrUnauthorized
	}

	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		s.log.Debug("rejected bearer token", zap.Error(err))
		return "", ErrUnauthorized
	}

	return claims.Username, nil
}

func validateCredentials(username, password string) error {
	var errs []string
	if username == "" {
		errs = append(errs, "username is required")
	}
	if password == "" {
		errs = append(errs, "password is required")
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
