package secret

import (
	"strings"
	"testing"
)

func TestExpandEnv_StrictMissingVarErrors(t *testing.T) {
	t.Setenv("PRESENT", "ok")

	_, err := ExpandEnv("a=${PRESENT} b=${MISSING_PROFILEMCP_VAR}", true)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "MISSING_PROFILEMCP_VAR") {
		t.Fatalf("expected missing var name in error, got: %v", err)
	}
}

func TestExpandEnv_LenientMissingVarIsEmpty(t *testing.T) {
	t.Setenv("PRESENT", "ok")

	out, err := ExpandEnv("a=${PRESENT} b=${MISSING_PROFILEMCP_VAR}", false)
	if err != nil {
		t.Fatalf("ExpandEnv() error = %v", err)
	}
	if out != "a=ok b=" {
		t.Fatalf("ExpandEnv() = %q, want %q", out, "a=ok b=")
	}
}

func TestExpandEnv_DollarEscape(t *testing.T) {
	t.Setenv("X", "y")

	out, err := ExpandEnv("$$${X}", true)
	if err != nil {
		t.Fatalf("ExpandEnv() error = %v", err)
	}
	if out != "$y" {
		t.Fatalf("ExpandEnv() = %q, want %q", out, "$y")
	}
}

func TestExpandEnv_BareDollarUntouched(t *testing.T) {
	t.Setenv("WORD", "expanded")

	out, err := ExpandEnv("pa$WORD", false)
	if err != nil {
		t.Fatalf("ExpandEnv() error = %v", err)
	}
	if out != "pa$WORD" {
		t.Fatalf("ExpandEnv() = %q, want %q", out, "pa$WORD")
	}
}
