package registration

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/core/events"
)

// NewAdmin is a verified tenant account ready to be stored.
type NewAdmin struct {
	Name         string
	Email        string
	Username     string
	PasswordHash string
}

type Repository interface {
	Exists(ctx context.Context, email, username string) (bool, error)
	// CreateAdmin stores the user and its default settings atomically.
	CreateAdmin(ctx context.Context, admin NewAdmin) (*Account, error)
}

// ErrDuplicate is returned by CreateAdmin when email or username is taken.
var ErrDuplicate = errors.New("duplicate user")

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type MailQueue interface {
	QueueLength() int
}

var (
	errUserExists     = internal.NewConflictError("User with this email or username already exists", internal.ErrCodeDuplicateUser)
	errInvalidRequest = internal.NewValidationError("Invalid request data", internal.ErrCodeInvalidRequest)
	errInvalidOTP     = internal.NewValidationError("Invalid or expired verification code", internal.ErrCodeInvalidOTP)
	errSessionExpired = internal.NewValidationError("Registration session expired", internal.ErrCodeSessionExpired)
)

type Service struct {
	repo       Repository
	store      *VerificationStore
	publisher  Publisher
	queue      MailQueue
	bcryptCost int
	masterOTP  string
	logger     *slog.Logger
}

type Options struct {
	BCryptCost int
	MasterOTP  string
}

func NewService(repo Repository, store *VerificationStore, publisher Publisher, queue MailQueue, opts Options, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		store:      store,
		publisher:  publisher,
		queue:      queue,
		bcryptCost: opts.BCryptCost,
		masterOTP:  opts.MasterOTP,
		logger:     logger,
	}
}

// Register creates an active admin immediately, without email verification.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*Account, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	account, err := s.createAdmin(ctx, NewAdmin{
		Name:         dto.Name,
		Email:        strings.ToLower(dto.Email),
		Username:     dto.Username,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "admin registered", "user_id", account.ID)
	return &Account{ID: account.ID, Email: account.Email}, nil
}

// Signup parks the registration until the emailed code is confirmed and
// returns the mail queue length after the code was queued.
func (s *Service) Signup(ctx context.Context, dto SignupDTO) (int, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return 0, errInvalidRequest.WithDetails(appErr.Details)
	}
	email := strings.ToLower(dto.Email)

	exists, err := s.repo.Exists(ctx, email, dto.Username)
	if err != nil {
		return 0, internal.NewInternalError("failed to check existing users", err)
	}
	if exists {
		return 0, errUserExists
	}

	otp, err := GenerateOTP()
	if err != nil {
		return 0, internal.NewInternalError("failed to generate verification code", err)
	}
	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return 0, internal.NewInternalError("failed to hash password", err)
	}

	s.store.Store(otp, PendingSignup{Name: dto.Name, Email: email, Username: dto.Username, PasswordHash: hash})

	if err := s.publisher.PublishSync(ctx, events.NewSignupRequestedEvent(email, dto.Name, otp)); err != nil {
		s.store.Remove(email)
		return 0, internal.NewInternalError("failed to queue verification email", err)
	}

	s.logger.InfoContext(ctx, "verification code issued", "email", email)
	return s.queue.QueueLength(), nil
}

func (s *Service) VerifySignup(ctx context.Context, dto VerifyDTO) (*Account, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, errInvalidRequest.WithDetails(appErr.Details)
	}
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	otp := strings.TrimSpace(dto.OTP)

	master := s.masterOTP != "" && otp == s.masterOTP
	if !master && !s.store.VerifyOTP(email, otp) {
		return nil, errInvalidOTP
	}

	pending, ok := s.store.Pending(email)
	if !ok {
		return nil, errSessionExpired
	}

	account, err := s.createAdmin(ctx, NewAdmin(pending))
	if err != nil {
		return nil, err
	}
	s.store.Remove(email)

	s.logger.InfoContext(ctx, "signup verified", "user_id", account.ID, "master_otp", master)
	return account, nil
}

func (s *Service) createAdmin(ctx context.Context, admin NewAdmin) (*Account, error) {
	account, err := s.repo.CreateAdmin(ctx, admin)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, errUserExists
		}
		return nil, internal.NewInternalError("failed to create user", err)
	}
	return account, nil
}
