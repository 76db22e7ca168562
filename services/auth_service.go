package services

import (
	"fmt"
	"log/slog"

	"chat-hub/auth"
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/google/uuid"
)

var (
	_ contract.Authenticator = (*AuthService)(nil)
	_ contract.Verifier      = (*AuthService)(nil)
)

type AuthService struct {
	store     contract.IStore
	tokenizer *auth.Tokenizer
	policy    auth.PasswordPolicy
	params    auth.Argon2Params
	log       *slog.Logger
}

func NewAuthService(store contract.IStore, tokenizer *auth.Tokenizer, policy auth.PasswordPolicy,
	params auth.Argon2Params, log *slog.Logger) *AuthService {
	return &AuthService{
		store:     store,
		tokenizer: tokenizer,
		policy:    policy,
		params:    params,
		log:       log,
	}
}

func (s *AuthService) Register(username, password string) (domain.User, error) {
	// 1. Validate business rules before any expensive cryptographic operation
	if err := s.policy.ValidateRegister(auth.RegisterRequest{Username: username, Password: password}); err != nil {
		return domain.User{}, err
	}

	// 2. Hash the password so the store never sees it in plain text
	hash, err := auth.HashPasswordWith(s.params, password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist, ErrUserAlreadyExists propagates when the username is taken
	user := domain.User{
		ID:           domain.UserID(uuid.NewString()),
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.store.AddUser(user); err != nil {
		return domain.User{}, err
	}
	s.log.Info("User registered", "user_id", user.ID, "username", username)
	return user, nil
}

func (s *AuthService) Login(username, password string) (domain.Credentials, error) {
	// Unknown users and wrong passwords look the same to prevent enumeration
	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		if !errors.Is(err, errors.ErrUserNotFound) {
			s.log.Error("User lookup failed", "username", username, "error", err)
		}
		return domain.Credentials{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil {
		s.log.Error("Stored hash is unreadable", "user_id", user.ID, "error", err)
		return domain.Credentials{}, errors.ErrInvalidCredentials
	}
	if !match {
		return domain.Credentials{}, errors.ErrInvalidCredentials
	}

	token, err := s.tokenizer.Issue(user.ID)
	if err != nil {
		return domain.Credentials{}, err
	}
	return domain.Credentials{Token: token, UserID: user.ID}, nil
}

// Verify resolves a token to the identity found in its subject.
func (s *AuthService) Verify(token string) (domain.UserID, error) {
	claims, err := s.tokenizer.Parse(token)
	if err != nil {
		return "", err
	}
	return domain.UserID(claims.Subject), nil
}
