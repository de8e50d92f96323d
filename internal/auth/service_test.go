package auth

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	password   string
	signedIn   bool
	userCalls  int
	signUps    []domain.SignUpRequest
	expiry     time.Time
	signOutErr error
}

func (f *fakeAuth) SignIn(ctx context.Context, login, password string) error {
	if password != f.password {
		return &domain.APIError{Status: 401, Err: domain.ErrAuthFailed}
	}
	f.signedIn = true
	return nil
}

func (f *fakeAuth) SignUp(ctx context.Context, req domain.SignUpRequest) error {
	f.signUps = append(f.signUps, req)
	return nil
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.signedIn = false
	return f.signOutErr
}

func (f *fakeAuth) CurrentUser(ctx context.Context) (*domain.User, error) {
	f.userCalls++
	if !f.signedIn {
		return nil, &domain.APIError{Status: 401, Err: domain.ErrAuthFailed}
	}
	return &domain.User{ID: 3, UserName: "mika", Roles: []string{"Admin"}}, nil
}

func (f *fakeAuth) SessionExpiry() (time.Time, bool) {
	return f.expiry, !f.expiry.IsZero()
}

func TestSignInLoadsUserOnce(t *testing.T) {
	repo := &fakeAuth{password: "pw"}
	s := NewSession(repo, nil)

	user, err := s.SignIn(context.Background(), " mika ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "mika", user.UserName)

	assert.Equal(t, 3, s.UserID(context.Background()))
	assert.Equal(t, 1, repo.userCalls)
}

func TestSignInErrors(t *testing.T) {
	s := NewSession(&fakeAuth{password: "pw"}, nil)

	_, err := s.SignIn(context.Background(), "", "pw")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.SignIn(context.Background(), "mika", "nope")
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestCurrentUserWithoutSession(t *testing.T) {
	s := NewSession(&fakeAuth{}, nil)

	_, err := s.CurrentUser(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotSignedIn)
	assert.Equal(t, 0, s.UserID(context.Background()))
}

func TestSignOutClearsUser(t *testing.T) {
	repo := &fakeAuth{password: "pw", signOutErr: domain.ErrNetworkFailure}
	s := NewSession(repo, nil)
	_, err := s.SignIn(context.Background(), "mika", "pw")
	require.NoError(t, err)

	err = s.SignOut(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetworkFailure)

	_, err = s.CurrentUser(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotSignedIn)
}

func TestValidateSignUp(t *testing.T) {
	valid := domain.SignUpRequest{Email: "a@b.c", Username: "mika", Password: "x", RepeatPassword: "x"}
	require.NoError(t, ValidateSignUp(valid))

	tests := map[string]func(r *domain.SignUpRequest){
		"bad email":        func(r *domain.SignUpRequest) { r.Email = "ab.c" },
		"no username":      func(r *domain.SignUpRequest) { r.Username = " " },
		"no password":      func(r *domain.SignUpRequest) { r.Password, r.RepeatPassword = "", "" },
		"password differs": func(r *domain.SignUpRequest) { r.RepeatPassword = "y" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			req := valid
			mutate(&req)
			assert.ErrorIs(t, ValidateSignUp(req), domain.ErrInvalidInput)
		})
	}
}

func TestSignUpTrimsAndForwards(t *testing.T) {
	repo := &fakeAuth{}
	s := NewSession(repo, nil)

	err := s.SignUp(context.Background(), domain.SignUpRequest{
		Email: " a@b.c ", Username: " mika ", Password: "x", RepeatPassword: "x",
	})
	require.NoError(t, err)
	require.Len(t, repo.signUps, 1)
	assert.Equal(t, "a@b.c", repo.signUps[0].Email)
	assert.Equal(t, "mika", repo.signUps[0].Username)

	err = s.SignUp(context.Background(), domain.SignUpRequest{Email: "a@b.c", Username: "m", Password: "x", RepeatPassword: "z"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Len(t, repo.signUps, 1)
}

func TestExpiry(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeAuth{}
	s := NewSession(repo, nil)
	s.now = func() time.Time { return now }

	_, ok, _ := s.Expiry()
	assert.False(t, ok)

	repo.expiry = now.Add(time.Minute)
	exp, ok, expired := s.Expiry()
	assert.True(t, ok)
	assert.False(t, expired)
	assert.Equal(t, repo.expiry, exp)

	repo.expiry = now
	_, _, expired = s.Expiry()
	assert.True(t, expired)
}

func TestPrompter(t *testing.T) {
	in := strings.NewReader("mika\nsecret\n")
	var out bytes.Buffer
	p := NewPrompter(in, &out)

	login, password, err := p.Credentials("")
	require.NoError(t, err)
	assert.Equal(t, "mika", login)
	assert.Equal(t, "secret", password)
	assert.Equal(t, "Login: Password: ", out.String())
}

func TestPrompterSignUpForm(t *testing.T) {
	p := NewPrompter(strings.NewReader("mika\npw\npw"), &bytes.Buffer{})

	req, err := p.SignUpForm(domain.SignUpRequest{Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, domain.SignUpRequest{Email: "a@b.c", Username: "mika", Password: "pw", RepeatPassword: "pw"}, req)

	_, err = p.SignUpForm(domain.SignUpRequest{})
	assert.Error(t, err)
}
