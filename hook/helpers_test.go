package hook

import (
	"testing"

	"github.com/Moonlight-Companies/gologger/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger("hook-test")
}

func newTestManager(t *testing.T) (*Manager, *MemoryEngine) {
	t.Helper()
	engine := NewMemoryEngine()
	m, err := NewManager(engine, WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m, engine
}
