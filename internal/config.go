package internal

import (
	"fmt"
	"time"

	"chat-hub/auth"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	JWTSecret          string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration  time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	PasswordMinLength  int           `env:"PASSWORD_MIN_LENGTH,default=1"`
	PasswordComplexity bool          `env:"PASSWORD_COMPLEXITY,default=false"`
	ArgonMemoryKiB     uint32        `env:"ARGON_MEMORY_KIB,default=65536"`
	ArgonIterations    uint32        `env:"ARGON_ITERATIONS,default=3"`
	ArgonParallelism   uint8         `env:"ARGON_PARALLELISM,default=2"`
	SendBufferSize     int           `env:"SEND_BUFFER_SIZE,default=256"`
	MaxMessageSize     int64         `env:"MAX_MESSAGE_SIZE,default=65536"`
	MaxContentLength   int           `env:"MAX_CONTENT_LENGTH,default=4096"`
	RateLimitPerSecond float64       `env:"RATE_LIMIT_RPS,default=20"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST,default=40"`
	PingPeriod         time.Duration `env:"PING_PERIOD,default=54s"`
	PongWait           time.Duration `env:"PONG_WAIT,default=60s"`
	WriteWait          time.Duration `env:"WRITE_WAIT,default=10s"`
	ModerationEnabled  bool          `env:"MODERATION_ENABLED,default=true"`
	CharReplacement    string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	MetricInterval     time.Duration `env:"METRIC_INTERVAL,default=5s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	DebugInspect       bool          `env:"DEBUG_INSPECT,default=false"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// PasswordPolicy is permissive unless PASSWORD_MIN_LENGTH or PASSWORD_COMPLEXITY
// tighten it. auth.DefaultPasswordPolicy is the strict preset for deployments.
func (c Config) PasswordPolicy() auth.PasswordPolicy {
	return auth.PasswordPolicy{MinLength: c.PasswordMinLength, RequireComplexity: c.PasswordComplexity}
}

// Validate checks the relations between settings that tags cannot express.
func (c Config) Validate() error {
	switch {
	case c.PingPeriod >= c.PongWait:
		return fmt.Errorf("PING_PERIOD (%s) must be shorter than PONG_WAIT (%s)", c.PingPeriod, c.PongWait)
	case c.SendBufferSize <= 0:
		return fmt.Errorf("SEND_BUFFER_SIZE must be positive, got %d", c.SendBufferSize)
	case c.RateLimitPerSecond <= 0 || c.RateLimitBurst <= 0:
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	case len(c.JWTSecret) < 16:
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	return nil
}
