package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowedOrigins(t *testing.T) {
	c := &Config{CORSOrigins: " https://a.test, ,https://b.test "}
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, c.AllowedOrigins())

	assert.Empty(t, (&Config{}).AllowedOrigins())
}

func TestLockTimeout(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, (&Config{LockTimeoutMS: 1500}).LockTimeout())
}
