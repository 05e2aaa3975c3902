package translate

import "github.com/goliatone/go-cms-translate/internal/runtimeconfig"

var (
	ErrCMSManagementTokenRequired = runtimeconfig.ErrCMSManagementTokenRequired
	ErrTranslatorAPIKeyRequired   = runtimeconfig.ErrTranslatorAPIKeyRequired
	ErrPortInvalid                = runtimeconfig.ErrPortInvalid
	ErrMaxDepthInvalid            = runtimeconfig.ErrMaxDepthInvalid
	ErrTrackingDirRequired        = runtimeconfig.ErrTrackingDirRequired
)

type (
	Config = runtimeconfig.Config
	Option = runtimeconfig.Option
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// FromEnv builds a Config from the process environment overlaid on the
// defaults.
func FromEnv(opts ...Option) Config {
	return runtimeconfig.FromEnv(opts...)
}

var (
	WithPort        = runtimeconfig.WithPort
	WithTrackingDir = runtimeconfig.WithTrackingDir
	WithMaxDepth    = runtimeconfig.WithMaxDepth
	WithClonePrefix = runtimeconfig.WithClonePrefix
)
