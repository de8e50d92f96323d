package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

// Session is the signed-in state of the app. It is created once at start
// and shared by everything that needs the current user.
type Session struct {
	repo   domain.AuthRepository
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	user *domain.User
}

// NewSession creates a new auth session.
func NewSession(repo domain.AuthRepository, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{repo: repo, logger: logger, now: time.Now}
}

// SignIn authenticates and loads the account
func (s *Session) SignIn(ctx context.Context, login, password string) (*domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, fmt.Errorf("%w: login and password are required", domain.ErrInvalidInput)
	}

	if err := s.repo.SignIn(ctx, login, password); err != nil {
		s.logger.Error("sign in failed", "error", err, "login", login)
		return nil, err
	}

	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("signed in", "user", user.UserName)
	return user, nil
}

// ValidateSignUp checks a registration form
func ValidateSignUp(req domain.SignUpRequest) error {
	switch {
	case !strings.Contains(req.Email, "@"):
		return fmt.Errorf("%w: email address is not valid", domain.ErrInvalidInput)
	case strings.TrimSpace(req.Username) == "":
		return fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	case req.Password == "":
		return fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	case req.Password != req.RepeatPassword:
		return fmt.Errorf("%w: passwords do not match", domain.ErrInvalidInput)
	}
	return nil
}

// SignUp registers a new account. It does not sign in.
func (s *Session) SignUp(ctx context.Context, req domain.SignUpRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := ValidateSignUp(req); err != nil {
		return err
	}

	if err := s.repo.SignUp(ctx, req); err != nil {
		s.logger.Error("sign up failed", "error", err, "username", req.Username)
		return err
	}
	s.logger.Info("signed up", "username", req.Username)
	return nil
}

// SignOut ends the session. Local state is cleared even when the server
// call fails.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	if err := s.repo.SignOut(ctx); err != nil {
		s.logger.Warn("server sign out failed", "error", err)
		return err
	}
	return nil
}

// CurrentUser returns the signed-in account, asking the server once per
// session. ErrNotSignedIn means there is no valid session.
func (s *Session) CurrentUser(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	if s.user != nil {
		u := *s.user
		s.mu.Unlock()
		return &u, nil
	}
	s.mu.Unlock()

	user, err := s.repo.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailed) {
			return nil, fmt.Errorf("%w: %v", domain.ErrNotSignedIn, err)
		}
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	u := *user
	return &u, nil
}

// UserID returns the id of the signed-in user, or 0
func (s *Session) UserID(ctx context.Context) int {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return 0
	}
	return user.ID
}

// Expiry reports when the access token expires and whether it already has
func (s *Session) Expiry() (time.Time, bool, bool) {
	exp, ok := s.repo.SessionExpiry()
	if !ok {
		return time.Time{}, false, false
	}
	return exp, true, !s.now().Before(exp)
}
