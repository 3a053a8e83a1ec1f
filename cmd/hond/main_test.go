package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hond.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("HOND_CONFIG", path)
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("HOND_CONFIG", "/nonexistent/path/hond.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("run() error = %v, want config error", err)
	}
}

func TestRun_InvalidBaseURL(t *testing.T) {
	writeConfig(t, fmt.Sprintf(`
hon:
  base_url: "ftp://cloud"
database:
  path: ":memory:"
api:
  host: "127.0.0.1"
  port: %d
logging:
  level: error
`, freePort(t)))

	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "cloud client") {
		t.Fatalf("run() error = %v, want cloud client error", err)
	}
}

func TestRun_StartsAndStops(t *testing.T) {
	writeConfig(t, fmt.Sprintf(`
database:
  path: ":memory:"
api:
  host: "127.0.0.1"
  port: %d
logging:
  level: error
`, freePort(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("HOND_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want default", got)
	}
	t.Setenv("HOND_CONFIG", "/etc/hond.yaml")
	if got := getConfigPath(); got != "/etc/hond.yaml" {
		t.Errorf("getConfigPath() = %q", got)
	}
}
