// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

/*
Package middleware provides the HTTP middleware shared by every route.

  - RequestID: accepts or generates an X-Request-ID and seeds the logging
    context with request and correlation ids
  - PrometheusMetrics: request counts, latency and in-flight gauge, labelled
    by the matched chi route pattern so path parameters do not explode
    label cardinality
  - Compression: gzip for responses over 1KB via klauspost/compress/gzhttp;
    already compressed content such as rec archives passes through

Order matters: RequestID runs first so later middleware log with the id.

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression())
*/
package middleware
