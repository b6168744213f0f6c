package cli

import (
	"os"
	"testing"

	"github.com/agbru/tmmcalc/internal/ui"
)

func TestCLIColorProvider(t *testing.T) {
	// InitTheme honors NO_COLOR, which may be set in the test environment.
	if val, ok := os.LookupEnv("NO_COLOR"); ok {
		os.Unsetenv("NO_COLOR")
		defer os.Setenv("NO_COLOR", val)
	}
	defer ui.InitTheme(true)

	ui.InitTheme(false)
	provider := CLIColorProvider{}
	if provider.Yellow() == "" {
		t.Error("Yellow should return a color code when colors are enabled")
	}
	if provider.Reset() == "" {
		t.Error("Reset should return a code when colors are enabled")
	}

	ui.InitTheme(true)
	if provider.Yellow() != "" || provider.Reset() != "" {
		t.Error("codes should be empty when colors are disabled")
	}
}
