package git

import (
	"os"
	"testing"

	"github.com/kvidal/gitcore/internal/trace"
)

func TestMain(m *testing.M) {
	// Set the trace targets based on the environment variables.
	trace.ReadEnv()
	// Run the tests.
	os.Exit(m.Run())
}
