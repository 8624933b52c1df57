package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config         *Config
	groundTruthDir string
	forceRefresh   bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithGroundTruthDir points the application at a local reference directory,
// bypassing the cache and the network entirely.
func WithGroundTruthDir(dir string) Option {
	return func(a *application) {
		a.groundTruthDir = dir
	}
}

// WithForceRefresh makes the next resolution contact the origin even when
// the cached snapshot is fresh.
func WithForceRefresh() Option {
	return func(a *application) {
		a.forceRefresh = true
	}
}
