// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

/*
Package api serves the recorded game analytics over HTTP using the Chi router.

Endpoints:

	GET  /api/v1/health                  store connectivity and breaker state
	GET  /api/v1/health/live             liveness
	GET  /api/v1/health/ready            readiness (503 until the store answers)
	POST /api/v1/search                  criteria and flag search, one page of match ids
	GET  /api/v1/search/flags            registered flags
	GET  /api/v1/matches/{match_id}/flags  per-player flag evidence of a match
	POST /api/v1/odds                    historical odds for a proposed matchup
	GET  /api/v1/series/{id}             tournament series with resolved sides
	GET  /api/v1/events                  events, oldest first
	GET  /api/v1/events/{id}             event bracket and map usage
	GET  /api/v1/ladders                 ladders of a platform
	GET  /api/v1/ladders/{platform_id}/{ladder_id}/ranks
	GET  /api/v1/ladders/{platform_id}/{ladder_id}/users/{user_id}
	GET  /api/v1/ladders/{platform_id}/{ladder_id}/users/{user_id}/rates
	GET  /api/v1/users/{platform_id}/{user_id}/ranks?ladder_ids=
	GET  /api/v1/reports                 months with a report
	GET  /api/v1/reports/{year}/{month}  monthly summary
	GET  /api/v1/reports/{year}/{month}/rankings
	GET  /api/v1/reports/{year}/{month}/maps
	GET  /api/v1/reports/{year}/{month}/improvement
	GET  /api/v1/download/{file_id}      rec archive (zip)
	GET  /metrics                        Prometheus

Every JSON response uses the APIResponse envelope. Client mistakes (unknown
criteria fields, unknown flags, invalid months) answer 400 with the offending
field in the error details; an open store circuit breaker answers 503.

Requests are rate limited per client IP with httprate, and search and odds
have a tighter limit than the read-only ladder and report endpoints.
*/
package api
