package secret

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileProvider_TrimsTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "password"), []byte("s3cret\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	p := NewFileProvider(dir)
	got, err := p.Resolve(context.Background(), "password")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "s3cret" {
		t.Fatalf("Resolve() = %q, want %q", got, "s3cret")
	}
}

func TestFileProvider_MissingFile(t *testing.T) {
	p := NewFileProvider(t.TempDir())
	if _, err := p.Resolve(context.Background(), "absent"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("PROFILEMCP_TEST_SECRET", "value")

	p := NewEnvProvider()
	got, err := p.Resolve(context.Background(), "PROFILEMCP_TEST_SECRET")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "value" {
		t.Fatalf("Resolve() = %q, want %q", got, "value")
	}
	if _, err := p.Resolve(context.Background(), "PROFILEMCP_TEST_UNSET"); err == nil {
		t.Fatalf("expected error for unset variable")
	}
}

func TestNewResolverFromRegistry(t *testing.T) {
	t.Setenv("PROFILEMCP_TEST_SECRET", "from-env")

	r, err := NewResolverFromRegistry(NewStandardRegistry(), true)
	if err != nil {
		t.Fatalf("NewResolverFromRegistry() error = %v", err)
	}
	defer r.Close()

	got, err := r.Resolve(context.Background(), "secretref:env:PROFILEMCP_TEST_SECRET")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "from-env" {
		t.Fatalf("Resolve() = %q, want %q", got, "from-env")
	}
}
