package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	authport "vet-clinic-api/internal/ports/auth"
	"vet-clinic-api/internal/ports/oauth"

	"vet-clinic-api/internal/domain/users"
	"vet-clinic-api/internal/platform/logger"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountNeedsPassword es el error específico para cuentas creadas
	// vía Google sin contraseña local: el signup/login tradicional debe
	// dirigir al usuario a entrar con Google y definir una contraseña,
	// no mostrar el genérico de email duplicado.
	ErrAccountNeedsPassword = errors.New("account was created with Google and has no password yet; sign in with Google and set a password")

	// ErrEmailNotVerified: el proveedor no confirma el email. No se crea
	// ni autentica ningún usuario.
	ErrEmailNotVerified = errors.New("verify your email with the provider before signing in")

	// ErrProviderFailure es el mensaje genérico para cualquier falla del
	// colaborador externo (exchange, perfil). El detalle va al log.
	ErrProviderFailure = errors.New("could not sign in with Google")
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
	minUsernameLen = 3
	maxUsernameLen = 30
)

// Users es lo que el puente de autenticación necesita del módulo de
// usuarios. Lo implementa *users.Service.
type Users interface {
	Create(ctx context.Context, in users.CreateInput) (users.User, error)
	Update(ctx context.Context, id string, in users.UpdateInput) (users.User, error)
	GetByEmail(ctx context.Context, email string) (users.User, error)
	GetByUsername(ctx context.Context, username string) (users.User, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
}

type Service struct {
	users    Users
	provider oauth.Provider
	tokens   authport.TokenIssuer
	log      logger.Logger

	// Inyectables para tests (bcrypt es caro y no determinista).
	hash    func(password string) (string, error)
	compare func(hash, password string) bool
}

func NewService(us Users, provider oauth.Provider, tokens authport.TokenIssuer, log logger.Logger) *Service {
	return &Service{
		users:    us,
		provider: provider,
		tokens:   tokens,
		log:      log,
		hash: func(password string) (string, error) {
			b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			return string(b), err
		},
		compare: func(hash, password string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
		},
	}
}

type SignUpInput struct {
	Username string
	Email    string
	Password string
}

// SignUp registra una cuenta local con rol client.
// Si el email ya pertenece a una cuenta sin contraseña (creada vía
// Google), devuelve el error específico en lugar del genérico.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (users.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := validateUsername(username); err != nil {
		return users.User{}, err
	}
	if !strings.Contains(email, "@") {
		return users.User{}, ErrInvalidInput
	}
	if err := validatePassword(in.Password); err != nil {
		return users.User{}, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return users.User{}, ErrUsernameTaken
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil {
		if !existing.HasPassword() {
			return users.User{}, ErrAccountNeedsPassword
		}
		return users.User{}, ErrEmailTaken
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return users.User{}, err
	}

	return s.users.Create(ctx, users.CreateInput{
		Username:     username,
		Email:        email,
		Role:         users.RoleClient,
		PasswordHash: hash,
	})
}

// Login autentica por username o email + contraseña y emite un token.
func (s *Service) Login(ctx context.Context, login, password string) (users.User, string, error) {
	login = strings.TrimSpace(login)
	if len(login) < minUsernameLen || password == "" {
		return users.User{}, "", ErrInvalidCredentials
	}

	u, err := s.users.GetByUsername(ctx, login)
	if err != nil {
		u, err = s.users.GetByEmail(ctx, login)
	}
	if err != nil {
		return users.User{}, "", ErrInvalidCredentials
	}

	if !u.HasPassword() {
		return users.User{}, "", ErrAccountNeedsPassword
	}
	if !u.Active || !s.compare(u.PasswordHash, password) {
		return users.User{}, "", ErrInvalidCredentials
	}

	tok, err := s.issueToken(u)
	if err != nil {
		return users.User{}, "", err
	}
	return u, tok, nil
}

// SetPassword define la contraseña local de la cuenta autenticada.
func (s *Service) SetPassword(ctx context.Context, userID, password string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	return s.users.SetPasswordHash(ctx, userID, hash)
}

// AuthURL arma la URL de consentimiento del proveedor.
func (s *Service) AuthURL(state string) string {
	return s.provider.AuthURL(state)
}

// OAuthResult es la salida del callback: la cuenta conciliada, un token de
// sesión y si la cuenta todavía necesita definir contraseña local (paso
// previo antes de entrar a la aplicación).
type OAuthResult struct {
	User          users.User
	Token         string
	NeedsPassword bool
	Created       bool
}

// OAuthCallback concilia la identidad externa con la cuenta local:
// canjea el code, trae el perfil, exige email verificado, y busca o crea
// la cuenta por email. Ninguna falla externa muta estado ni se reintenta.
func (s *Service) OAuthCallback(ctx context.Context, code string) (OAuthResult, error) {
	if strings.TrimSpace(code) == "" {
		return OAuthResult{}, ErrProviderFailure
	}

	tok, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		s.logError("oauth code exchange failed", err)
		return OAuthResult{}, ErrProviderFailure
	}

	profile, err := s.provider.FetchProfile(ctx, tok)
	if err != nil {
		s.logError("oauth profile fetch failed", err)
		return OAuthResult{}, ErrProviderFailure
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		s.logError("oauth profile missing email", nil)
		return OAuthResult{}, ErrProviderFailure
	}
	if !profile.VerifiedEmail {
		return OAuthResult{}, ErrEmailNotVerified
	}

	u, err := s.users.GetByEmail(ctx, email)
	created := false
	if err != nil {
		// Cuenta nueva: username determinístico desde el local-part,
		// con sufijo numérico si colisiona. Sin contraseña local.
		username, err := s.generateUsername(ctx, email)
		if err != nil {
			return OAuthResult{}, err
		}
		u, err = s.users.Create(ctx, users.CreateInput{
			Username:  username,
			Email:     email,
			FirstName: profile.GivenName,
			LastName:  profile.FamilyName,
			Role:      users.RoleClient,
		})
		if err != nil {
			return OAuthResult{}, err
		}
		created = true
	} else {
		u = s.backfillNames(ctx, u, profile)
	}

	sessionToken, err := s.issueToken(u)
	if err != nil {
		return OAuthResult{}, err
	}

	return OAuthResult{
		User:          u,
		Token:         sessionToken,
		NeedsPassword: !u.HasPassword(),
		Created:       created,
	}, nil
}

// backfillNames completa nombres vacíos con los del perfil externo.
// Best-effort: si el update falla, la cuenta original sigue sirviendo.
func (s *Service) backfillNames(ctx context.Context, u users.User, p oauth.Profile) users.User {
	var in users.UpdateInput
	touch := false

	if u.FirstName == "" && strings.TrimSpace(p.GivenName) != "" {
		v := p.GivenName
		in.FirstName = &v
		touch = true
	}
	if u.LastName == "" && strings.TrimSpace(p.FamilyName) != "" {
		v := p.FamilyName
		in.LastName = &v
		touch = true
	}
	if !touch {
		return u
	}

	updated, err := s.users.Update(ctx, u.ID, in)
	if err != nil {
		s.logError("oauth name backfill failed", err)
		return u
	}
	return updated
}

// generateUsername deriva un username del local-part del email; ante
// colisión prueba sufijos -2, -3, ...
func (s *Service) generateUsername(ctx context.Context, email string) (string, error) {
	base := sanitizeUsername(strings.SplitN(email, "@", 2)[0])
	if len(base) < minUsernameLen {
		base = base + strings.Repeat("0", minUsernameLen-len(base))
	}
	if len(base) > maxUsernameLen {
		base = base[:maxUsernameLen]
	}

	candidate := base
	for i := 2; ; i++ {
		if _, err := s.users.GetByUsername(ctx, candidate); err != nil {
			return candidate, nil
		}
		suffix := fmt.Sprintf("-%d", i)
		trimmed := base
		if len(trimmed)+len(suffix) > maxUsernameLen {
			trimmed = trimmed[:maxUsernameLen-len(suffix)]
		}
		candidate = trimmed + suffix
	}
}

func (s *Service) issueToken(u users.User) (string, error) {
	return s.tokens.Issue(authport.Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
	})
}

func (s *Service) logError(msg string, err error) {
	if s.log == nil {
		return
	}
	fields := map[string]any{}
	if err != nil {
		fields["error"] = err.Error()
	}
	s.log.Error(msg, fields)
}

func validateUsername(username string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return ErrInvalidInput
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return ErrInvalidInput
		}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return ErrInvalidInput
	}
	return nil
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == '.':
			b.WriteRune('_')
		}
	}
	return b.String()
}
