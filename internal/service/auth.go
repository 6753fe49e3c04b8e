package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/aqdev/uauth/pkg/errors"
	"github.com/aqdev/uauth/pkg/middleware"

	"github.com/aqdev/uauth/internal/auth"
	"github.com/aqdev/uauth/internal/domain"
	"github.com/aqdev/uauth/internal/repository"
)

// BcryptCost is the cost factor for bcrypt password hashing. Seeded accounts
// use the same cost so all stored hashes verify in comparable time.
const BcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// EventPublisher emits the account and session lifecycle events. Publish
// failures are logged, never surfaced to the caller.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishSessionCreated(ctx context.Context, rec *domain.TokenRecord, email string) error
	PublishSessionRevoked(ctx context.Context, rec *domain.TokenRecord) error
}

// RegistrationLimiter bounds how often new accounts can be created from a
// single origin.
type RegistrationLimiter interface {
	// Allow reports whether the origin identified by key may register
	// another account right now.
	Allow(ctx context.Context, key string) (bool, error)
}

// AuthService implements the business logic for registration, login, token
// refresh, logout, and access token validation.
type AuthService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	codec     *auth.Codec
	producer  EventPublisher
	limiter   RegistrationLimiter
	logger    *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	codec *auth.Codec,
	producer EventPublisher,
	limiter RegistrationLimiter,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		codec:     codec,
		producer:  producer,
		limiter:   limiter,
		logger:    logger,
	}
}

// --- Input types ---

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	RemoteIP  string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// --- Operations ---

// Register creates a new user account, hashes the password, and opens the
// account's first session.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.Session, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.FirstName == "" {
		return nil, nil, apperrors.InvalidInput("first name is required")
	}
	if input.LastName == "" {
		return nil, nil, apperrors.InvalidInput("last name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, err
	}
	role, err := resolveRequestedRole(input.Role)
	if err != nil {
		return nil, nil, err
	}

	if err := s.checkRegistrationLimit(ctx, input.RemoteIP); err != nil {
		return nil, nil, err
	}

	// Pre-check for a friendlier error than the unique-index violation; the
	// index still backstops concurrent registrations.
	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("check email availability: %w", err)
	}
	if exists {
		return nil, nil, apperrors.AlreadyExists("user", "email", input.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), BcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	rec, err := s.mintTokenRecord(user)
	if err != nil {
		return nil, nil, err
	}

	// A freshly created account has no prior sessions to revoke.
	if err := s.tokenRepo.Create(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("store session: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, s.sessionFromRecord(user, rec), nil
}

// Login authenticates a user with email and password, revokes any live
// sessions, and opens a new one.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.Session, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	// Unknown email and wrong password are deliberately indistinguishable.
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	rec, err := s.mintTokenRecord(user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.tokenRepo.RevokeAllAndCreate(ctx, user.ID, rec); err != nil {
		return nil, nil, fmt.Errorf("store session: %w", err)
	}

	if err := s.producer.PublishSessionCreated(ctx, rec, user.Email); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.created event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, s.sessionFromRecord(user, rec), nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// presented refresh token is carried into the new session unchanged. On any
// validation failure the ledger is left untouched.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	subject, err := s.codec.ExtractSubject(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	user, err := s.userRepo.GetByEmail(ctx, subject)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	if err := s.codec.Validate(refreshToken, user.Email); err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	accessToken, err := s.codec.IssueAccess(user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	rec := s.newTokenRecord(user.ID, accessToken, refreshToken)
	if err := s.tokenRepo.RevokeAllAndCreate(ctx, user.ID, rec); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	if err := s.producer.PublishSessionCreated(ctx, rec, user.Email); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.created event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "session refreshed",
		slog.String("user_id", user.ID),
	)

	return s.sessionFromRecord(user, rec), nil
}

// Logout revokes the session identified by the presented access token. An
// access token the ledger has never seen, or one whose session is already
// dead, is rejected rather than silently ignored.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return apperrors.InvalidInput("access token is required")
	}

	rec, err := s.tokenRepo.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return apperrors.Unauthorized("invalid access token")
	}
	if !rec.Valid() {
		return apperrors.Unauthorized("session is no longer active")
	}

	if err := s.tokenRepo.Revoke(ctx, rec.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	if err := s.producer.PublishSessionRevoked(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.revoked event",
			slog.String("session_id", rec.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", rec.UserID),
		slog.String("session_id", rec.ID),
	)

	return nil
}

// ValidateAccess checks an access token against both the codec and the
// ledger. A token that verifies cryptographically but belongs to a revoked
// session is rejected, as is a live ledger row whose token no longer
// verifies.
func (s *AuthService) ValidateAccess(ctx context.Context, accessToken string) (*middleware.Principal, error) {
	subject, err := s.codec.ExtractSubject(accessToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid access token")
	}

	user, err := s.userRepo.GetByEmail(ctx, subject)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid access token")
	}

	if err := s.codec.Validate(accessToken, user.Email); err != nil {
		return nil, apperrors.Unauthorized("invalid or expired access token")
	}

	rec, err := s.tokenRepo.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid access token")
	}
	if !rec.Valid() {
		return nil, apperrors.Unauthorized("session is no longer active")
	}

	return &middleware.Principal{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role.String(),
		Permissions: user.Role.PermissionStrings(),
	}, nil
}

// GetProfile retrieves a user by their ID.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// --- Helpers ---

func (s *AuthService) checkRegistrationLimit(ctx context.Context, remoteIP string) error {
	if s.limiter == nil || remoteIP == "" {
		return nil
	}

	allowed, err := s.limiter.Allow(ctx, remoteIP)
	if err != nil {
		// Fail open: an unreachable limiter store must not take down
		// registration.
		s.logger.WarnContext(ctx, "registration limiter unavailable",
			slog.String("error", err.Error()),
		)
		return nil
	}
	if !allowed {
		return apperrors.RateLimited("too many registration attempts, try again later")
	}
	return nil
}

// mintTokenRecord issues a fresh access/refresh token pair for the user and
// wraps it in an unsaved ledger record.
func (s *AuthService) mintTokenRecord(user *domain.User) (*domain.TokenRecord, error) {
	accessToken, err := s.codec.IssueAccess(user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.codec.IssueRefresh(user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return s.newTokenRecord(user.ID, accessToken, refreshToken), nil
}

func (s *AuthService) newTokenRecord(userID, accessToken, refreshToken string) *domain.TokenRecord {
	return &domain.TokenRecord{
		ID:           uuid.New().String(),
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    domain.TokenTypeBearer,
		ExpiresIn:    int(s.codec.AccessTTL().Seconds()),
		CreatedAt:    time.Now().UTC(),
	}
}

func (s *AuthService) sessionFromRecord(user *domain.User, rec *domain.TokenRecord) *domain.Session {
	return &domain.Session{
		Username:     user.Email,
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		ExpiresIn:    rec.ExpiresIn,
	}
}

// validatePassword checks that the password meets minimum complexity requirements.
// resolveRequestedRole maps the optional requested role to the account role.
// An empty request defaults to the user role. Privileged roles exist only for
// seeded accounts; letting callers request them at registration would be an
// open privilege escalation, so those requests are refused outright.
func resolveRequestedRole(requested string) (domain.Role, error) {
	if requested == "" {
		return domain.RoleUser, nil
	}
	role, err := domain.ParseRole(requested)
	if err != nil {
		return "", apperrors.InvalidInput(fmt.Sprintf("invalid role %q", requested))
	}
	if role != domain.RoleUser {
		return "", apperrors.Forbidden(fmt.Sprintf("role %q cannot be self-assigned", requested))
	}
	return role, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
