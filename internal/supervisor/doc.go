// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

/*
Package supervisor runs the long-lived parts of the server under suture v4.

	Root ("aocrecs")
	├── "maintenance-layer"
	│   ├── store-health   periodic ping, exported as store_up
	│   └── cache-gc       Badger value log GC (badger backend only)
	└── "api-layer"
	    └── http-server

Crashed services restart with suture's backoff; each layer counts failures
independently. Supervisor events are logged through sutureslog, backed by
the zerolog slog adapter in internal/logging.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	return tree.Serve(ctx)
*/
package supervisor
