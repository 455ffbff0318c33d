package config

import "testing"

func TestSecretKeyReadsEnvOnce(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("SECRET_KEY", "  s3cret  ")

	if got := SecretKey(); got != "s3cret" {
		t.Fatalf("SecretKey() = %q, want trimmed env value", got)
	}

	// The value is sticky after the first read.
	t.Setenv("SECRET_KEY", "changed")
	if got := SecretKey(); got != "s3cret" {
		t.Fatalf("SecretKey() re-read the env, got %q", got)
	}
}
