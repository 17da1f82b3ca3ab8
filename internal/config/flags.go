package config

import "flag"

// Flags holds command-line overrides shared by frmetool commands.
type Flags struct {
	Config     string
	Debug      bool
	Strict     bool
	LogFile    string
	MaxWidgets int
}

// RegisterFlags binds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.Strict, "strict", false, "Fail on unsupported draw primitives")
	fs.StringVar(&f.LogFile, "log-file", "", "Write logs to a rotated file")
	fs.IntVar(&f.MaxWidgets, "max-widgets", 0, "Reject frames declaring more widgets (0 = unlimited)")
	return f
}

// ConfigPath returns the explicit config path if provided via --config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.Config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Strict {
		cfg.Decode.StrictPrimitives = true
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.MaxWidgets > 0 {
		cfg.Decode.MaxWidgets = f.MaxWidgets
	}
}
