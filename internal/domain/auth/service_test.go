package auth

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"vet-clinic-api/internal/domain/users"
	authport "vet-clinic-api/internal/ports/auth"
	"vet-clinic-api/internal/ports/oauth"
)

type fakeUsers struct {
	byEmail    map[string]users.User
	byUsername map[string]users.User
	nextID     int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byEmail:    make(map[string]users.User),
		byUsername: make(map[string]users.User),
	}
}

func (f *fakeUsers) add(u users.User) users.User {
	if u.ID == "" {
		f.nextID++
		u.ID = "u-" + strconv.Itoa(f.nextID)
	}
	u.Active = true
	f.byEmail[u.Email] = u
	f.byUsername[u.Username] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, in users.CreateInput) (users.User, error) {
	return f.add(users.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		PasswordHash: in.PasswordHash,
	}), nil
}

func (f *fakeUsers) Update(_ context.Context, id string, in users.UpdateInput) (users.User, error) {
	for _, u := range f.byEmail {
		if u.ID != id {
			continue
		}
		if in.FirstName != nil {
			u.FirstName = *in.FirstName
		}
		if in.LastName != nil {
			u.LastName = *in.LastName
		}
		f.byEmail[u.Email] = u
		f.byUsername[u.Username] = u
		return u, nil
	}
	return users.User{}, users.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (users.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (users.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) SetPasswordHash(_ context.Context, id, hash string) error {
	for _, u := range f.byEmail {
		if u.ID == id {
			u.PasswordHash = hash
			f.byEmail[u.Email] = u
			f.byUsername[u.Username] = u
			return nil
		}
	}
	return users.ErrNotFound
}

type fakeProvider struct {
	exchangeErr error
	profileErr  error
	profile     oauth.Profile
}

func (f *fakeProvider) AuthURL(state string) string { return "https://provider/auth?state=" + state }

func (f *fakeProvider) ExchangeCode(_ context.Context, _ string) (oauth.Token, error) {
	if f.exchangeErr != nil {
		return oauth.Token{}, f.exchangeErr
	}
	return oauth.Token{AccessToken: "tok"}, nil
}

func (f *fakeProvider) FetchProfile(_ context.Context, _ oauth.Token) (oauth.Profile, error) {
	if f.profileErr != nil {
		return oauth.Profile{}, f.profileErr
	}
	return f.profile, nil
}

type fakeIssuer struct{}

func (fakeIssuer) Issue(c authport.Claims) (string, error) { return "jwt-" + c.UserID, nil }

func newTestService(us *fakeUsers, p *fakeProvider) *Service {
	svc := NewService(us, p, fakeIssuer{}, nil)
	svc.hash = func(password string) (string, error) { return "hash:" + password, nil }
	svc.compare = func(hash, password string) bool { return hash == "hash:"+password }
	return svc
}

func TestSignUpAndLogin(t *testing.T) {
	us := newFakeUsers()
	svc := newTestService(us, &fakeProvider{})
	ctx := context.Background()

	u, err := svc.SignUp(ctx, SignUpInput{
		Username: "carlos",
		Email:    "carlos@example.com",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.Role != users.RoleClient {
		t.Fatalf("expected client role, got %s", u.Role)
	}

	// Por username y por email.
	if _, _, err := svc.Login(ctx, "carlos", "supersecret"); err != nil {
		t.Fatalf("login by username: %v", err)
	}
	if _, _, err := svc.Login(ctx, "carlos@example.com", "supersecret"); err != nil {
		t.Fatalf("login by email: %v", err)
	}

	if _, _, err := svc.Login(ctx, "carlos", "wrongpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignUpDetectsPasswordlessAccount(t *testing.T) {
	us := newFakeUsers()
	us.add(users.User{Username: "ana", Email: "ana@example.com", Role: users.RoleClient})
	svc := newTestService(us, &fakeProvider{})

	_, err := svc.SignUp(context.Background(), SignUpInput{
		Username: "ana2026",
		Email:    "ana@example.com",
		Password: "supersecret",
	})
	if !errors.Is(err, ErrAccountNeedsPassword) {
		t.Fatalf("expected ErrAccountNeedsPassword, got %v", err)
	}
}

func TestLoginPasswordlessAccount(t *testing.T) {
	us := newFakeUsers()
	us.add(users.User{Username: "ana", Email: "ana@example.com", Role: users.RoleClient})
	svc := newTestService(us, &fakeProvider{})

	_, _, err := svc.Login(context.Background(), "ana", "whatever123")
	if !errors.Is(err, ErrAccountNeedsPassword) {
		t.Fatalf("expected ErrAccountNeedsPassword, got %v", err)
	}
}

func TestOAuthCallbackCreatesAccount(t *testing.T) {
	us := newFakeUsers()
	p := &fakeProvider{profile: oauth.Profile{
		Email:         "maria.lopez@example.com",
		VerifiedEmail: true,
		GivenName:     "Maria",
		FamilyName:    "Lopez",
	}}
	svc := newTestService(us, p)

	res, err := svc.OAuthCallback(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if !res.Created {
		t.Fatalf("expected a new account")
	}
	if res.User.Username != "maria_lopez" {
		t.Fatalf("expected username maria_lopez, got %s", res.User.Username)
	}
	if !res.NeedsPassword {
		t.Fatalf("new oauth account should need a password")
	}
	if res.Token == "" {
		t.Fatalf("expected a session token")
	}
}

func TestOAuthCallbackUsernameCollision(t *testing.T) {
	us := newFakeUsers()
	us.add(users.User{Username: "maria_lopez", Email: "other@example.com", PasswordHash: "x"})
	p := &fakeProvider{profile: oauth.Profile{
		Email:         "maria.lopez@gmail.com",
		VerifiedEmail: true,
	}}
	svc := newTestService(us, p)

	res, err := svc.OAuthCallback(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if res.User.Username != "maria_lopez-2" {
		t.Fatalf("expected suffixed username, got %s", res.User.Username)
	}
}

func TestOAuthCallbackUnverifiedEmail(t *testing.T) {
	us := newFakeUsers()
	p := &fakeProvider{profile: oauth.Profile{
		Email:         "pepe@example.com",
		VerifiedEmail: false,
	}}
	svc := newTestService(us, p)

	_, err := svc.OAuthCallback(context.Background(), "code-1")
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
	if len(us.byEmail) != 0 {
		t.Fatalf("no account should be created for unverified email")
	}
}

func TestOAuthCallbackProviderFailure(t *testing.T) {
	us := newFakeUsers()
	p := &fakeProvider{exchangeErr: oauth.ErrExchangeFailed}
	svc := newTestService(us, p)

	_, err := svc.OAuthCallback(context.Background(), "code-1")
	if !errors.Is(err, ErrProviderFailure) {
		t.Fatalf("expected generic ErrProviderFailure, got %v", err)
	}
	if len(us.byEmail) != 0 {
		t.Fatalf("no state should change on provider failure")
	}
}

func TestOAuthCallbackBackfillsNames(t *testing.T) {
	us := newFakeUsers()
	us.add(users.User{Username: "juan", Email: "juan@example.com", PasswordHash: "x"})
	p := &fakeProvider{profile: oauth.Profile{
		Email:         "juan@example.com",
		VerifiedEmail: true,
		GivenName:     "Juan",
		FamilyName:    "Perez",
	}}
	svc := newTestService(us, p)

	res, err := svc.OAuthCallback(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if res.Created {
		t.Fatalf("existing account should be reused")
	}
	if res.User.FirstName != "Juan" || res.User.LastName != "Perez" {
		t.Fatalf("expected names backfilled, got %q %q", res.User.FirstName, res.User.LastName)
	}
	if res.NeedsPassword {
		t.Fatalf("account with password should not need one")
	}
}

func TestSetPasswordEnablesLocalLogin(t *testing.T) {
	us := newFakeUsers()
	u := us.add(users.User{Username: "ana", Email: "ana@example.com", Role: users.RoleClient})
	svc := newTestService(us, &fakeProvider{})
	ctx := context.Background()

	if err := svc.SetPassword(ctx, u.ID, "supersecret"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "ana", "supersecret"); err != nil {
		t.Fatalf("login after set password: %v", err)
	}
}
