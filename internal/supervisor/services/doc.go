// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

// Package services adapts blocking components to suture.Service: the HTTP
// server and periodic maintenance tasks.
//
// The HTTP service owns the shutdown order of the API. Readiness fails
// before the server stops, and the result cache and match store are closed
// only after in-flight requests have drained.
package services
