// Package logger wraps zap's sugared logger and scrubs sensitive
// fields before they reach a sink. Credentials and emails are dropped
// outright; tenant identifiers are replaced with a salted digest so
// log lines stay correlatable without exposing the raw id.
package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

type Logger struct {
	sugar *zap.SugaredLogger
	scrub *scrubber
}

func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: zl.Sugar(), scrub: scrubberFromEnv()}, nil
}

func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, l.scrub.fields(keysAndValues)...)
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, l.scrub.fields(keysAndValues)...)
}

func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, l.scrub.fields(keysAndValues)...)
}

func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, l.scrub.fields(keysAndValues)...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...any) {
	l.sugar.Fatalw(msg, l.scrub.fields(keysAndValues)...)
}

func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{
		sugar: l.sugar.With(l.scrub.fields(keysAndValues)...),
		scrub: l.scrub,
	}
}

// scrubber rewrites structured log fields. Disabled only when
// LOG_REDACTION_ENABLED is explicitly turned off; the digest salt
// comes from LOG_HASH_SALT so ids cannot be reversed from public logs
// alone.
type scrubber struct {
	enabled bool
	salt    string
}

func scrubberFromEnv() *scrubber {
	s := &scrubber{enabled: true, salt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		s.enabled = false
	}
	return s
}

func (s *scrubber) fields(kv []any) []any {
	if !s.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		out[i+1] = s.value(strings.ToLower(key), out[i+1])
	}
	return out
}

func (s *scrubber) value(key string, val any) any {
	if dropKey(key) {
		return "[REDACTED]"
	}
	if digestKey(key) {
		return s.digest(val)
	}
	if str, ok := val.(string); ok && looksLikeJWT(str) {
		return "[REDACTED]"
	}
	return val
}

func dropKey(key string) bool {
	for _, frag := range []string{"password", "secret", "token", "authorization", "cookie", "api_key", "apikey", "email"} {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}

// Keys that identify a tenant: useful for correlating lines, never
// needed in the clear.
func digestKey(key string) bool {
	switch key {
	case "user_id", "system_id", "session_id":
		return true
	}
	return false
}

func (s *scrubber) digest(val any) string {
	raw := fmt.Sprint(val)
	if raw == "" || raw == "<nil>" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

// Access and refresh tokens are JWTs; catch one logged under a
// harmless key.
func looksLikeJWT(s string) bool {
	return strings.HasPrefix(s, "eyJ") && strings.Count(s, ".") == 2
}
