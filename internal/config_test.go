package internal

import (
	"testing"
	"time"

	"chat-hub/auth"
	"chat-hub/errors"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	var cfg Config

	// Given only the secret is set
	err := env.Unmarshal(env.EnvSet{"JWT_SECRET": "0123456789abcdef"}, &cfg)
	req.NoError(err)

	// Then every other setting has its default
	req.Equal(8080, cfg.Port)
	req.Equal("INFO", cfg.LogLevel)
	req.Equal(24*time.Hour, cfg.AuthTokenDuration)
	req.Equal(256, cfg.SendBufferSize)
	req.Equal(54*time.Second, cfg.PingPeriod)
	req.True(cfg.ModerationEnabled)
	req.False(cfg.DebugInspect)
	req.NoError(cfg.Validate())
}

func TestConfig_Default_Password_Policy_Accepts_Short_Passwords(t *testing.T) {
	req := require.New(t)
	var cfg Config
	err := env.Unmarshal(env.EnvSet{"JWT_SECRET": "0123456789abcdef"}, &cfg)
	req.NoError(err)

	// Then alice can sign up with "p1" out of the box
	req.NoError(cfg.PasswordPolicy().ValidateRegister(auth.RegisterRequest{Username: "alice", Password: "p1"}))

	// And the policy tightens through the environment
	err = env.Unmarshal(env.EnvSet{
		"JWT_SECRET":          "0123456789abcdef",
		"PASSWORD_MIN_LENGTH": "12",
		"PASSWORD_COMPLEXITY": "true",
	}, &cfg)
	req.NoError(err)
	req.ErrorIs(cfg.PasswordPolicy().ValidateRegister(auth.RegisterRequest{Username: "alice", Password: "p1"}), errors.ErrInvalidPassword)
}

func TestConfig_Secret_Is_Required(t *testing.T) {
	var cfg Config
	err := env.Unmarshal(env.EnvSet{}, &cfg)
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		err := env.Unmarshal(env.EnvSet{"JWT_SECRET": "0123456789abcdef"}, &cfg)
		require.NoError(t, err)
		return cfg
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ping not shorter than pong", func(c *Config) { c.PingPeriod = c.PongWait }},
		{"empty send buffer", func(c *Config) { c.SendBufferSize = 0 }},
		{"no rate", func(c *Config) { c.RateLimitPerSecond = 0 }},
		{"no burst", func(c *Config) { c.RateLimitBurst = 0 }},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)

	_, err = CharacterRune("**")
	req.Error(err)
	_, err = CharacterRune("")
	req.Error(err)
}
