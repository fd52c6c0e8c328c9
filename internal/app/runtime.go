package app

import "os"

const testModeEnv = "TIDEBOOK_TEST_MODE"

// InTestMode reports whether the process should skip runtime side
// effects such as binding listeners. Used by smoke tests that exec the
// binaries.
func InTestMode() bool {
	return os.Getenv(testModeEnv) == "1"
}
