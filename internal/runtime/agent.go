package runtime

import (
	"context"

	configpkg "github.com/drblury/tagflow/internal/runtime/config"
	"github.com/drblury/tagflow/internal/runtime/handlers"
	loggingpkg "github.com/drblury/tagflow/internal/runtime/logging"
)

// NewAgent scans provider for its handlers and builds the listener serving
// them.
func NewAgent(ctx context.Context, conf *configpkg.Config, log loggingpkg.ServiceLogger, provider handlers.Provider, deps ListenerDependencies) (*Listener, error) {
	registry, err := handlers.Scan(provider)
	if err != nil {
		return nil, err
	}
	return TryNewListener(ctx, conf, log, registry, deps)
}
