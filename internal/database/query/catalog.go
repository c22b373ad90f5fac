// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package query

// Object and class ids as recorded in object_instances.
var (
	VillagerIDs     = []int64{56, 57, 83, 118, 120, 122, 123, 124, 156, 206, 207, 212, 214, 216, 218, 220, 222, 259, 293, 354, 579, 581, 590, 592}
	BoarIDs         = []int64{48, 810, 822, 1139}
	HuntIDs         = []int64{65, 333, 1026, 1060, 1239}
	HerdableIDs     = []int64{305, 594, 705, 833, 1142}
	PredatorIDs     = []int64{126, 486, 812, 1029}
	ScoutIDs        = []int64{448, 751, 1755}
	SplashDamageIDs = []int64{280, 550, 588}
	TowerIDs        = []int64{79, 566}
	CastleIDs       = []int64{82}
	ArcherIDs       = []int64{4}
	SkirmisherIDs   = []int64{7}
)

const (
	classUnit     = 70
	classBuilding = 80
	castleID      = 82
	castleAgeID   = 102
)

// DefaultFlags is the flag catalog served by the API.
func DefaultFlags() []FlagFragment {
	return []FlagFragment{
		deerPushes(),
		dautCastles(),
		nearBuildings("castle_drops", "Castle Drops", CastleIDs),
		thieves("boar_steals", "Boar Steals", BoarIDs),
		thieves("sheep_steals", "Sheep Steals", HerdableIDs),
		lostToGaia("lost_to_boar", "Villager Lost to Boar", BoarIDs),
		lostToGaia("lost_to_predator", "Villager Lost to Predator", PredatorIDs),
		lostResearch(),
		badBoarLure(),
		scoutWar(),
		nearBuildings("trushes", "Trush Towers", TowerIDs),
		fastCastle(),
		badaboom(),
		castleRace(),
		marketUsage(),
		trainedUnit("archers", "Trained Archers in Feudal", ArcherIDs, castleAgeID),
		trainedUnit("skirms", "Trained Skirmishers in Feudal", SkirmisherIDs, castleAgeID),
		trainedUnit("scouts", "Trained Scouts in Feudal", ScoutIDs[:1], castleAgeID),
	}
}

func lostToGaia(alias, name string, gaiaIDs []int64) FlagFragment {
	return FlagFragment{
		Alias: alias, Name: name, Evidence: true,
		Values: map[string]any{"villager_ids": VillagerIDs, "gaia_ids": gaiaIDs},
		Render: func(s FlagScope) string {
			return `SELECT units.match_id, units.initial_player_number AS number, units.destroyed::interval(0) AS timestamp
FROM object_instances AS gaia
JOIN object_instances AS units ON units.destroyed_by_instance_id = gaia.instance_id AND units.match_id = gaia.match_id
WHERE units.initial_object_id = ANY(` + s.Bind("villager_ids") + `)
AND gaia.initial_object_id = ANY(` + s.Bind("gaia_ids") + `)`
		},
	}
}

func thieves(alias, name string, objectIDs []int64) FlagFragment {
	return FlagFragment{
		Alias: alias, Name: name, Evidence: true,
		Values: map[string]any{"object_ids": objectIDs, "unit_class": classUnit},
		Render: func(s FlagScope) string {
			return `SELECT thief.match_id, thief.number, oi.destroyed::interval(0) AS timestamp
FROM object_instances AS oi
JOIN players AS owner ON oi.match_id = owner.match_id
JOIN players AS thief ON oi.match_id = thief.match_id AND owner.number <> thief.number
WHERE oi.initial_object_id = ANY(` + s.Bind("object_ids") + `)
AND oi.initial_class_id = ` + s.Bind("unit_class") + `
AND oi.destroyed_by_instance_id > 0
AND sqrt(power(thief.start_x - oi.destroyed_x, 2) + power(thief.start_y - oi.destroyed_y, 2)) < 5
AND sqrt(power(oi.created_x - owner.start_x, 2) + power(oi.created_y - owner.start_y, 2))
  < sqrt(power(oi.created_x - thief.start_x, 2) + power(oi.created_y - thief.start_y, 2))`
		},
	}
}

func nearBuildings(alias, name string, buildingIDs []int64) FlagFragment {
	return FlagFragment{
		Alias: alias, Name: name, Evidence: true,
		Values: map[string]any{"building_ids": buildingIDs, "building_class": classBuilding},
		Render: func(s FlagScope) string {
			return `SELECT rusher.match_id, rusher.number, oi.building_started::interval(0) AS timestamp
FROM object_instances AS oi
JOIN players AS opp ON opp.match_id = oi.match_id AND opp.number <> oi.initial_player_number
JOIN players AS rusher ON rusher.match_id = oi.match_id AND rusher.number = oi.initial_player_number
WHERE oi.initial_class_id = ` + s.Bind("building_class") + `
AND oi.initial_object_id = ANY(` + s.Bind("building_ids") + `)
AND oi.building_started IS NOT NULL AND oi.building_completed IS NOT NULL
AND sqrt(power(oi.created_x - rusher.start_x, 2) + power(oi.created_y - rusher.start_y, 2))
  > sqrt(power(oi.created_x - opp.start_x, 2) + power(oi.created_y - opp.start_y, 2)) * 3`
		},
	}
}

func dautCastles() FlagFragment {
	return FlagFragment{
		Alias: "daut_castles", Name: "Daut Castles", Evidence: true,
		Values: map[string]any{"castle_id": castleID, "min_percent": 0.1},
		Render: func(s FlagScope) string {
			return `SELECT players.match_id, players.number, oi.destroyed::interval(0) AS timestamp
FROM object_instances AS oi
JOIN players ON oi.match_id = players.match_id AND oi.initial_player_number = players.number
WHERE oi.initial_object_id = ` + s.Bind("castle_id") + `
AND oi.deleted IS TRUE AND oi.destroyed_building_percent > ` + s.Bind("min_percent")
		},
	}
}

func deerPushes() FlagFragment {
	return FlagFragment{
		Alias: "deer_pushes", Name: "Deer Pushes", Evidence: true,
		Values: map[string]any{"hunt_ids": HuntIDs, "unit_class": classUnit},
		Render: func(s FlagScope) string {
			return `SELECT players.match_id, players.number, oi.destroyed::interval(0) AS timestamp
FROM object_instances AS oi
JOIN players ON oi.match_id = players.match_id
WHERE oi.initial_class_id = ` + s.Bind("unit_class") + `
AND oi.initial_object_id = ANY(` + s.Bind("hunt_ids") + `)
AND oi.destroyed_by_instance_id > 0
AND sqrt(power(players.start_x - oi.destroyed_x, 2) + power(players.start_y - oi.destroyed_y, 2)) < 7`
		},
	}
}

func scoutWar() FlagFragment {
	return FlagFragment{
		Alias: "scout_war", Name: "Won Scout War", Evidence: true,
		Values: map[string]any{"scout_ids": ScoutIDs, "unit_class": classUnit},
		Render: func(s FlagScope) string {
			return `WITH scouts AS (
  SELECT instance_id, initial_player_number, match_id, destroyed_by_instance_id, destroyed
  FROM object_instances
  WHERE initial_class_id = ` + s.Bind("unit_class") + ` AND initial_object_id = ANY(` + s.Bind("scout_ids") + `)
  AND created < '00:00:10'
)
SELECT opp.match_id, opp.initial_player_number AS number, x.destroyed::interval(0) AS timestamp
FROM scouts AS x JOIN scouts AS opp ON x.destroyed_by_instance_id = opp.instance_id AND x.match_id = opp.match_id`
		},
	}
}

func badBoarLure() FlagFragment {
	return FlagFragment{
		Alias: "bad_boar_lure", Name: "Bad Boar Lure", Evidence: true,
		Values: map[string]any{"boar_ids": BoarIDs, "unit_class": classUnit},
		Render: func(s FlagScope) string {
			return `SELECT players.match_id, players.number, oi.destroyed::interval(0) AS timestamp
FROM object_instances AS oi
JOIN players ON players.match_id = oi.match_id
WHERE oi.initial_class_id = ` + s.Bind("unit_class") + ` AND oi.initial_object_id = ANY(` + s.Bind("boar_ids") + `)
AND sqrt(power(oi.destroyed_x - players.start_x, 2) + power(oi.destroyed_y - players.start_y, 2)) < 5
AND ((players.start_x - oi.destroyed_x) > 2 OR (oi.destroyed_y - players.start_y) > 2)`
		},
	}
}

func lostResearch() FlagFragment {
	return FlagFragment{
		Alias: "lost_research", Name: "Lost Researches", Evidence: true, NeedsMatchSubset: true,
		Values: map[string]any{"building_class": classBuilding},
		Render: func(s FlagScope) string {
			return `SELECT ois.match_id, ois.player_number AS number, oi.destroyed::interval(0) AS timestamp, technologies.name AS value
FROM object_instance_states AS ois
JOIN (
  SELECT max(object_instance_states.id) AS id, object_instance_states.match_id, object_instance_states.instance_id
  FROM object_instance_states JOIN (` + s.MatchSubset() + `) AS sq ON object_instance_states.match_id = sq.id
  WHERE object_instance_states.class_id = ` + s.Bind("building_class") + `
  GROUP BY object_instance_states.instance_id, object_instance_states.match_id
) AS latest ON ois.id = latest.id AND ois.match_id = latest.match_id
JOIN object_instances AS oi ON ois.instance_id = oi.instance_id AND oi.match_id = ois.match_id
JOIN technologies ON ois.researching_technology_id = technologies.id AND ois.dataset_id = technologies.dataset_id
WHERE oi.destroyed IS NOT NULL AND ois.researching_technology_id > 0`
		},
	}
}

// trainedUnit matches players who trained exactly one of unitIDs between the
// first minute and finishing beforeTech. It reports no per-event evidence.
func trainedUnit(alias, name string, unitIDs []int64, beforeTech int) FlagFragment {
	return FlagFragment{
		Alias: alias, Name: name, NeedsMatchSubset: true,
		Values: map[string]any{"unit_ids": unitIDs, "unit_class": classUnit, "before_tech": beforeTech},
		Render: func(s FlagScope) string {
			return `SELECT oi.match_id, oi.initial_player_number AS number
FROM object_instances AS oi
JOIN (` + s.MatchSubset() + `) AS sq ON oi.match_id = sq.id
WHERE oi.initial_class_id = ` + s.Bind("unit_class") + `
AND oi.initial_object_id = ANY(` + s.Bind("unit_ids") + `)
AND oi.created > '00:01:00'
AND oi.created < (
  SELECT min(research.finished) FROM research
  WHERE research.match_id = oi.match_id AND research.player_number = oi.initial_player_number
  AND research.technology_id = ` + s.Bind("before_tech") + `
)
GROUP BY oi.match_id, oi.initial_player_number
HAVING count(DISTINCT oi.initial_object_id) = 1`
		},
	}
}

func fastCastle() FlagFragment {
	return FlagFragment{
		Alias: "fast_castle", Name: "Fast Castle", Evidence: true,
		Values: map[string]any{"max_delay_seconds": 90},
		Render: func(s FlagScope) string {
			return `SELECT x.match_id, x.player_number AS number, castle.started::interval(0) AS timestamp
FROM research AS x
JOIN (
  SELECT match_id, player_number, started FROM research WHERE technology_id = 102
) AS castle ON castle.match_id = x.match_id AND castle.player_number = x.player_number
WHERE x.technology_id = 101
AND extract(epoch FROM castle.started - x.finished) < ` + s.Bind("max_delay_seconds")
		},
	}
}

func badaboom() FlagFragment {
	return FlagFragment{
		Alias: "badaboom", Name: "Splash Damage Kills", Evidence: true, NeedsMatchSubset: true,
		Values: map[string]any{"splash_damage_ids": SplashDamageIDs, "unit_class": classUnit, "min_kills": 5},
		Render: func(s FlagScope) string {
			return `SELECT mangos.match_id, mangos.initial_player_number AS number, oi.destroyed::interval(0) AS timestamp,
  objects.name || ' kills ' || count(DISTINCT oi.instance_id) AS value
FROM object_instances AS mangos
JOIN object_instances AS oi ON mangos.instance_id = oi.destroyed_by_instance_id AND mangos.match_id = oi.match_id
JOIN (` + s.MatchSubset() + `) AS sq ON mangos.match_id = sq.id
JOIN objects ON mangos.initial_object_id = objects.id AND mangos.dataset_id = objects.dataset_id
WHERE mangos.initial_object_id = ANY(` + s.Bind("splash_damage_ids") + `)
AND oi.initial_class_id = ` + s.Bind("unit_class") + ` AND oi.destroyed IS NOT NULL
GROUP BY mangos.match_id, mangos.initial_player_number, oi.destroyed, mangos.instance_id, objects.name
HAVING count(DISTINCT oi.instance_id) >= ` + s.Bind("min_kills")
		},
	}
}

func castleRace() FlagFragment {
	return FlagFragment{
		Alias: "castle_race", Name: "Won Castle Race", Evidence: true,
		Values: map[string]any{"castle_id": castleID},
		Render: func(s FlagScope) string {
			return `WITH castles AS (
  SELECT match_id, initial_player_number AS number, created, created_x, created_y, deleted, destroyed
  FROM object_instances WHERE initial_object_id = ` + s.Bind("castle_id") + `
)
SELECT DISTINCT p1.match_id, p1.number, p2.destroyed::interval(0) AS timestamp
FROM castles AS p1 JOIN castles AS p2 ON p1.match_id = p2.match_id
AND p1.number <> p2.number
AND sqrt(power(p1.created_x - p2.created_x, 2) + power(p1.created_y - p2.created_y, 2)) < 10
AND ((p1.created - p2.created < '00:01:00' AND p1.created - p2.created > '00:00:00')
  OR (p2.created - p1.created < '00:01:00' AND p2.created - p1.created > '00:00:00'))
AND p1.deleted = false AND p2.deleted = true`
		},
	}
}

func marketUsage() FlagFragment {
	return FlagFragment{
		Alias: "market_usage", Name: "Market Usage", Evidence: true, NeedsMatchSubset: true,
		Render: func(s FlagScope) string {
			return `SELECT transactions.match_id, transactions.player_number AS number, transactions.timestamp::interval(0) AS timestamp, actions.name AS value
FROM (` + s.MatchSubset() + `) AS m
JOIN transactions ON m.id = transactions.match_id
JOIN actions ON transactions.action_id = actions.id`
		},
	}
}
