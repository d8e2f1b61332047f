package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/otpkeeper/internal/flagx"
)

// parseFlags populates cfg from the flags it owns. Other arguments are
// filtered out with flagx.FilterArgs first.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-d", "-k", "-l", "-v", "-m"})

	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "application data directory")
	fs.StringVar(&cfg.KeySource, "k", cfg.KeySource, "master key source (file|keyring)")
	fs.StringVar(&cfg.LogFormat, "l", cfg.LogFormat, "log format (text|json|zerolog)")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level (debug|info|warn|error)")
	fs.StringVar(&cfg.MergePolicy, "m", cfg.MergePolicy, "merge policy (arrival|newer)")

	return fs.Parse(args)
}
