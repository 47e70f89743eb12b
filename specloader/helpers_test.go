package specloader

import (
	"os"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func mkdir(path string) error {
	return os.MkdirAll(path, 0o755)
}
