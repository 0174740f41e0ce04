package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestInitWithWriter_LevelAndComponent(t *testing.T) {
	orig := log.Logger
	t.Cleanup(func() { log.Logger = orig })

	var buf bytes.Buffer
	InitWithWriter("warn", &buf)
	l := WithComponent("Engine")
	l.Info().Msg("hidden line")
	l.Warn().Str("proxy", "203.0.113.1:80").Msg("visible line")

	out := buf.String()
	if strings.Contains(out, "hidden line") {
		t.Fatalf("info line written at warn level: %q", out)
	}
	for _, want := range []string{"visible line", "component=", "Engine", "203.0.113.1:80"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestInitWithWriter_UnknownLevelFallsBackToInfo(t *testing.T) {
	orig := log.Logger
	t.Cleanup(func() { log.Logger = orig })

	var buf bytes.Buffer
	InitWithWriter("verbose", &buf)
	l := WithComponent("Main")
	l.Debug().Msg("debug line")
	l.Info().Msg("info line")

	out := buf.String()
	if strings.Contains(out, "debug line") || !strings.Contains(out, "info line") {
		t.Fatalf("unexpected output for fallback level: %q", out)
	}
}
