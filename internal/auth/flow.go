package auth

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/karimzahran/sakan/internal/notify"
)

// LoginFlow runs the magic link login: Start emails a one-time link,
// Verify exchanges its token for an API key the client stores.
type LoginFlow struct {
	config   Config
	users    *UserStore
	tokens   *TokenStore
	apiKeys  *APIKeyStore
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewLoginFlow creates a login flow.
func NewLoginFlow(config Config, users *UserStore, tokens *TokenStore, apiKeys *APIKeyStore, notifier notify.Notifier, logger *slog.Logger) *LoginFlow {
	return &LoginFlow{
		config:   config,
		users:    users,
		tokens:   tokens,
		apiKeys:  apiKeys,
		notifier: notifier,
		logger:   logger,
	}
}

// Start registers the email if new and sends a magic link.
// In dev mode the token is returned instead of emailed so the
// client can complete login without a mailbox.
func (f *LoginFlow) Start(email string) (devToken string, err error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := f.users.GetOrCreate(email); err != nil {
		return "", err
	}

	token, err := f.tokens.Create(email)
	if err != nil {
		return "", err
	}

	if f.config.DevMode {
		f.logger.Info("dev mode: magic link token issued", "email", email)
		return token, nil
	}

	link := fmt.Sprintf("%s/api/auth/verify?token=%s", f.config.BaseURL, token)
	f.notifier.Schedule(email, "Sign in to Sakan",
		fmt.Sprintf("Open this link to sign in: %s\n\nIt expires in 15 minutes.", link))

	return "", nil
}

// Verify exchanges a magic link token for a raw API key bound to the user.
func (f *LoginFlow) Verify(token, deviceName string) (string, *User, error) {
	email, err := f.tokens.Validate(token)
	if err != nil {
		return "", nil, err
	}

	user, err := f.users.GetByEmail(email)
	if err != nil {
		return "", nil, err
	}

	if deviceName == "" {
		deviceName = "device"
	}

	rawKey, _, err := f.apiKeys.Create(email, deviceName)
	if err != nil {
		return "", nil, err
	}

	f.logger.Info("login complete", "email", email, "device", deviceName)
	return rawKey, user, nil
}
