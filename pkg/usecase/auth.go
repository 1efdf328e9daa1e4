package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/crypto/bcrypt"
)

const tokenTypeBearer = "bearer"

type authUseCase struct {
	newPortal  interfaces.PortalClientFactory
	users      interfaces.UserRepository
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

type AuthOption func(*authUseCase)

// WithJWTSecret sets the HS256 signing key. A random key is generated when unset.
func WithJWTSecret(secret string) AuthOption {
	return func(uc *authUseCase) {
		if secret != "" {
			uc.secret = []byte(secret)
		}
	}
}

func WithTokenTTL(ttl time.Duration) AuthOption {
	return func(uc *authUseCase) {
		uc.ttl = ttl
	}
}

func WithBcryptCost(cost int) AuthOption {
	return func(uc *authUseCase) {
		uc.bcryptCost = cost
	}
}

func WithAuthClock(now func() time.Time) AuthOption {
	return func(uc *authUseCase) {
		uc.now = now
	}
}

// NewAuth creates a new instance of AuthUseCase. Portal credentials are the
// only credentials; a local account is created on first successful login.
func NewAuth(newPortal interfaces.PortalClientFactory, users interfaces.UserRepository, opts ...AuthOption) (interfaces.AuthUseCase, error) {
	uc := &authUseCase{
		newPortal:  newPortal,
		users:      users,
		ttl:        60 * time.Minute,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}

	if len(uc.secret) == 0 {
		uc.secret = make([]byte, 32)
		if _, err := rand.Read(uc.secret); err != nil {
			return nil, goerr.Wrap(err, "failed to generate JWT secret")
		}
	}

	return uc, nil
}

func (uc *authUseCase) Login(ctx context.Context, username, password string) (*model.Token, error) {
	logger := ctxlog.From(ctx)

	if username == "" || password == "" {
		return nil, goerr.Wrap(types.ErrAuth, "username and password are required")
	}

	if _, err := uc.newPortal().Authenticate(ctx, username, password); err != nil {
		return nil, goerr.Wrap(types.ErrAuth, "incorrect username or password",
			goerr.V("username", username), goerr.V("cause", err.Error()))
	}

	if _, err := uc.users.GetUser(ctx, username); err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return nil, goerr.Wrap(err, "failed to look up user", goerr.V("username", username))
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.bcryptCost)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to hash password")
		}
		user := &model.User{
			Username:     username,
			PasswordHash: string(hash),
			CreatedAt:    uc.now(),
		}
		if err := uc.users.PutUser(ctx, user); err != nil {
			return nil, goerr.Wrap(err, "failed to create user", goerr.V("username", username))
		}
		logger.Info("Created local user", "user", user)
	}

	now := uc.now()
	tok, err := jwt.NewBuilder().
		Subject(username).
		IssuedAt(now).
		Expiration(now.Add(uc.ttl)).
		Build()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build token")
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, uc.secret))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to sign token")
	}

	return &model.Token{AccessToken: string(signed), TokenType: tokenTypeBearer}, nil
}

func (uc *authUseCase) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", goerr.Wrap(types.ErrAuth, "missing bearer token")
	}

	parsed, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, uc.secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(uc.now)),
	)
	if err != nil {
		return "", goerr.Wrap(types.ErrAuth, "could not validate credentials", goerr.V("cause", err.Error()))
	}

	username := parsed.Subject()
	if username == "" {
		return "", goerr.Wrap(types.ErrAuth, "token has no subject")
	}

	if _, err := uc.users.GetUser(ctx, username); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return "", goerr.Wrap(types.ErrAuth, "unknown user", goerr.V("username", username))
		}
		return "", goerr.Wrap(err, "failed to look up user", goerr.V("username", username))
	}

	return username, nil
}
