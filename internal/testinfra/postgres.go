// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage matches the production database major version.
	DefaultPostgresImage = "postgres:16-alpine"

	postgresPort     = "5432/tcp"
	postgresUser     = "aocrecs"
	postgresPassword = "aocrecs"
	postgresDB       = "aocrecs"
)

// PostgresContainer is a running match database.
type PostgresContainer struct {
	testcontainers.Container
	URL string
}

// PostgresOption configures the container.
type PostgresOption func(*postgresConfig)

type postgresConfig struct {
	image        string
	startTimeout time.Duration
	seed         []string
}

// WithPostgresImage overrides the image.
func WithPostgresImage(image string) PostgresOption {
	return func(c *postgresConfig) { c.image = image }
}

// WithSeed runs statements after the schema is created.
func WithSeed(statements ...string) PostgresOption {
	return func(c *postgresConfig) { c.seed = append(c.seed, statements...) }
}

// NewPostgresContainer starts Postgres and loads Schema plus any seed.
func NewPostgresContainer(ctx context.Context, opts ...PostgresOption) (*PostgresContainer, error) {
	cfg := &postgresConfig{image: DefaultPostgresImage, startTimeout: 60 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.image,
			ExposedPorts: []string{postgresPort},
			Env: map[string]string{
				"POSTGRES_USER":     postgresUser,
				"POSTGRES_PASSWORD": postgresPassword,
				"POSTGRES_DB":       postgresDB,
			},
			// The entrypoint restarts the server once after init.
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort(postgresPort),
			).WithStartupTimeoutDefault(cfg.startTimeout),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("postgres host: %w", err)
	}
	port, err := container.MappedPort(ctx, postgresPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("postgres port: %w", err)
	}

	pc := &PostgresContainer{
		Container: container,
		URL: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			postgresUser, postgresPassword, host, port.Port(), postgresDB),
	}
	if err := pc.exec(ctx, append([]string{Schema}, cfg.seed...)...); err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}
	return pc, nil
}

func (p *PostgresContainer) exec(ctx context.Context, statements ...string) error {
	pool, err := pgxpool.New(ctx, p.URL)
	if err != nil {
		return fmt.Errorf("connect for seeding: %w", err)
	}
	defer pool.Close()

	for i, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seed statement %d: %w", i, err)
		}
	}
	return nil
}

// Schema is the subset of the match database the queries touch.
const Schema = `
CREATE TABLE platforms (id text PRIMARY KEY, name text NOT NULL);
CREATE TABLE ladders (id integer NOT NULL, platform_id text NOT NULL REFERENCES platforms(id), name text NOT NULL, PRIMARY KEY (id, platform_id));
CREATE TABLE matches (
	id integer PRIMARY KEY,
	map_name text,
	played timestamp,
	added timestamp,
	duration interval,
	rated boolean,
	diplomacy_type text,
	team_size text,
	type_id integer,
	platform_id text,
	ladder_id integer,
	dataset_id integer,
	dataset_version text,
	version text,
	game_version text,
	save_version double precision,
	build text,
	rms_seed integer,
	rms_custom integer,
	mirror boolean,
	cheats boolean,
	population_limit integer,
	lock_teams boolean,
	postgame boolean,
	has_playback boolean,
	speed_id integer,
	starting_age_id integer,
	map_size_id integer,
	difficulty_id integer,
	event_id text,
	tournament_id integer,
	series_id text,
	winning_team_id integer
);
CREATE TABLE players (
	match_id integer NOT NULL REFERENCES matches(id),
	number integer NOT NULL,
	user_id text,
	user_name text,
	name text NOT NULL,
	team_id integer,
	civilization_id integer,
	color_id integer,
	winner boolean,
	mvp boolean,
	human boolean,
	platform_id text,
	rate_snapshot integer,
	rate_before integer,
	rate_after integer,
	score integer,
	military_score integer,
	economy_score integer,
	technology_score integer,
	society_score integer,
	start_x double precision,
	start_y double precision,
	PRIMARY KEY (match_id, number)
);
CREATE TABLE files (
	id integer PRIMARY KEY,
	match_id integer NOT NULL REFERENCES matches(id),
	hash text NOT NULL,
	original_filename text NOT NULL,
	size integer,
	language text,
	encoding text,
	owner_number integer
);
CREATE TABLE events (id text PRIMARY KEY, name text NOT NULL, year integer);
CREATE TABLE tournaments (id integer PRIMARY KEY, event_id text NOT NULL REFERENCES events(id), name text NOT NULL);
CREATE TABLE rounds (id integer PRIMARY KEY, tournament_id integer NOT NULL REFERENCES tournaments(id), name text);
CREATE TABLE series (id text PRIMARY KEY, round_id integer NOT NULL REFERENCES rounds(id), played timestamp);
CREATE TABLE series_metadata (series_id text PRIMARY KEY REFERENCES series(id), name text NOT NULL);
CREATE TABLE participants (
	series_id text NOT NULL REFERENCES series(id),
	name text NOT NULL,
	score double precision,
	winner boolean
);
CREATE TABLE objects (id integer NOT NULL, dataset_id integer NOT NULL, name text NOT NULL, PRIMARY KEY (id, dataset_id));
CREATE TABLE technologies (id integer NOT NULL, dataset_id integer NOT NULL, name text NOT NULL, PRIMARY KEY (id, dataset_id));
CREATE TABLE object_instances (
	match_id integer NOT NULL REFERENCES matches(id),
	instance_id integer NOT NULL,
	dataset_id integer,
	initial_object_id integer,
	initial_class_id integer,
	initial_player_number integer,
	created interval,
	created_x double precision,
	created_y double precision,
	building_started interval,
	building_completed interval,
	destroyed interval,
	destroyed_x double precision,
	destroyed_y double precision,
	destroyed_by_instance_id integer,
	destroyed_building_percent double precision,
	deleted boolean,
	PRIMARY KEY (match_id, instance_id)
);
CREATE TABLE object_instance_states (
	id serial PRIMARY KEY,
	match_id integer NOT NULL REFERENCES matches(id),
	instance_id integer NOT NULL,
	dataset_id integer,
	class_id integer,
	player_number integer,
	researching_technology_id integer
);
CREATE TABLE research (
	match_id integer NOT NULL REFERENCES matches(id),
	player_number integer NOT NULL,
	technology_id integer NOT NULL,
	started interval,
	finished interval
);
CREATE TABLE actions (id integer PRIMARY KEY, name text NOT NULL);
CREATE TABLE transactions (
	match_id integer NOT NULL REFERENCES matches(id),
	player_number integer NOT NULL,
	timestamp interval,
	action_id integer REFERENCES actions(id)
);
`
