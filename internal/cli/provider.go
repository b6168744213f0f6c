package cli

// CLIColorProvider feeds the current theme colors to apperrors.
type CLIColorProvider struct{}

// Yellow returns the warning color.
func (CLIColorProvider) Yellow() string { return ColorYellow() }

// Reset returns the reset code.
func (CLIColorProvider) Reset() string { return ColorReset() }
