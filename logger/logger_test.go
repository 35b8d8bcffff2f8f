package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsCredentials(t *testing.T) {
	in := []interface{}{"course_id", 7, "jwt_token", "abc", "Authorization", "Bearer x", "dangling"}
	out := sanitizeKVs(in)

	assert.Equal(t, []interface{}{"course_id", 7, "jwt_token", "[REDACTED]", "Authorization", "[REDACTED]", "dangling"}, out)
	assert.Equal(t, "abc", in[3], "input slice must not be mutated")
}

func TestNopLoggerIsUsable(t *testing.T) {
	l := Nop().With("service", "test")
	l.Info("hello", "k", "v")
	l.Warn("careful")
	l.Sync()
}
