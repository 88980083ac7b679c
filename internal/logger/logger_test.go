package logger

import "testing"

func TestBuild(t *testing.T) {
	for _, env := range []string{"production", "test", "development", ""} {
		t.Run("env="+env, func(t *testing.T) {
			l, err := build(env)
			if err != nil {
				t.Fatalf("build(%q): %v", env, err)
			}
			if l == nil {
				t.Fatal("expected a logger")
			}
		})
	}
}

func TestGetAndWith(t *testing.T) {
	Init("test")
	if Get() == nil {
		t.Fatal("expected global logger")
	}
	if With("component", "test") == nil {
		t.Fatal("expected child logger")
	}
	Sync()
}
