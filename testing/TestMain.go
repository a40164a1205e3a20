// Package testing switches the application into test mode when imported by
// a test binary.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("JAG_TEST_MODE", "1")
		if os.Getenv("AUTH_SECRET") == "" {
			_ = os.Setenv("AUTH_SECRET", "test-mode-secret-0123456789")
		}
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
