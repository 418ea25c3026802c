package app

import "os"

const testModeEnv = "FINPORT_TEST_MODE"

// InTestMode reports whether the binaries should skip runtime startup.
// Integration harnesses set FINPORT_TEST_MODE=1 to exercise main wiring
// without touching Postgres or Redis.
func InTestMode() bool {
	return os.Getenv(testModeEnv) == "1"
}
