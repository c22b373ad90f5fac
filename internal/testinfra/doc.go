// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

/*
Package testinfra starts throwaway dependencies for integration tests using
testcontainers-go.

Everything here is behind the integration build tag:

	go test -tags integration ./...

Tests skip when Docker is unavailable or -short is set.

	func TestSomething(t *testing.T) {
	    testinfra.SkipIfNoDocker(t)
	    pg, err := testinfra.NewPostgresContainer(ctx, testinfra.WithSeed(seedSQL))
	    if err != nil {
	        t.Fatal(err)
	    }
	    defer testinfra.CleanupContainer(t, pg.Container)
	    // connect with pg.URL
	}
*/
package testinfra
