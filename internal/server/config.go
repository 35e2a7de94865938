package server

import (
	"github.com/uorlab/primeseek/internal/app"
	"github.com/uorlab/primeseek/internal/interfaces"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server (the CLI
	// uses the orchestrator in-process and does not require the network).
	ListenAddr string

	// AppConfig configures the orchestrator the server owns.
	AppConfig *app.Config

	// Logger overrides the default stdout logger.
	Logger interfaces.Logger
}
