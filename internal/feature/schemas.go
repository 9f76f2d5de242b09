package feature

import "fmt"

// Built-in league schemas. All leagues share the same base domains; each
// league appends its own extras, so vector lengths differ per league
// (82-94 across the supported set).

func spec(key string, def float64) FeatureSpec {
	return FeatureSpec{Key: key, Default: def}
}

func rate(key string, def float64) FeatureSpec {
	return FeatureSpec{Key: key, Default: def, Transform: TransformClamp01}
}

func logSpec(key string, def float64) FeatureSpec {
	return FeatureSpec{Key: key, Default: def, Transform: TransformLog1p}
}

// perSide duplicates specs for the home_ and away_ prefixes, home first
func perSide(specs ...FeatureSpec) []FeatureSpec {
	out := make([]FeatureSpec, 0, 2*len(specs))
	for _, prefix := range []string{"home_", "away_"} {
		for _, s := range specs {
			out = append(out, FeatureSpec{
				Key:       prefix + s.Key,
				Default:   s.Default,
				Transform: s.Transform,
			})
		}
	}
	return out
}

func formDomain() FeatureDomain {
	return FeatureDomain{
		Name: "form",
		Features: perSide(
			spec("form_points_last5", 6),
			spec("form_points_last10", 13),
			spec("goals_for_avg5", 1.3),
			spec("goals_against_avg5", 1.3),
			spec("xg_for_avg5", 1.25),
			spec("xg_against_avg5", 1.25),
			spec("shots_for_avg5", 12),
			spec("shots_against_avg5", 12),
			rate("clean_sheet_rate5", 0.25),
			spec("win_streak", 0),
		),
	}
}

func fatigueDomain() FeatureDomain {
	return FeatureDomain{
		Name: "fatigue",
		Features: perSide(
			spec("days_since_last_match", 7),
			spec("matches_last_21d", 4),
			logSpec("travel_km_last_14d", 600),
			spec("days_since_continental", 30),
			rate("squad_rotation_rate", 0.2),
		),
	}
}

func pressDomain() FeatureDomain {
	return FeatureDomain{
		Name: "press",
		Features: perSide(
			spec("ppda_avg5", 11),
			spec("high_turnovers_avg5", 6),
			rate("field_tilt_avg5", 0.5),
			spec("pressures_att_third_avg5", 35),
			spec("press_intensity_index", 50),
		),
	}
}

func tacticsDomain() FeatureDomain {
	return FeatureDomain{
		Name: "tactics",
		Features: perSide(
			spec("corners_avg5", 5),
			rate("setpiece_goal_share", 0.25),
			rate("counter_attack_share", 0.15),
			rate("possession_avg5", 0.5),
			rate("pass_accuracy_avg5", 0.8),
		),
	}
}

func marketDomain() FeatureDomain {
	return FeatureDomain{
		Name: "market",
		Features: []FeatureSpec{
			spec("market_open_home_odds", 2.6),
			spec("market_open_draw_odds", 3.3),
			spec("market_open_away_odds", 2.9),
			spec("market_drift_home", 0),
			spec("market_drift_draw", 0),
			spec("market_drift_away", 0),
			spec("market_overround", 1.05),
			logSpec("market_volume_index", 100),
		},
	}
}

func weatherDomain() FeatureDomain {
	return FeatureDomain{
		Name: "weather",
		Features: []FeatureSpec{
			spec("weather_rain_mm", 0),
			spec("weather_wind_kph", 8),
			spec("weather_temperature_c", 14),
			rate("pitch_condition_index", 0.85),
		},
	}
}

func squadDomain() FeatureDomain {
	return FeatureDomain{
		Name: "squad",
		Features: perSide(
			logSpec("squad_value_musd", 250),
			spec("injuries_count", 2),
			rate("injured_minutes_share", 0.08),
			spec("keeper_rating", 6.8),
		),
	}
}

func headToHeadDomain() FeatureDomain {
	return FeatureDomain{
		Name: "head_to_head",
		Features: []FeatureSpec{
			spec("h2h_home_wins_last10", 4),
			spec("h2h_draws_last10", 3),
			spec("h2h_away_wins_last10", 3),
			spec("h2h_goals_avg_last10", 2.6),
		},
	}
}

func momentumDomain() FeatureDomain {
	return FeatureDomain{
		Name: "momentum",
		Features: perSide(
			spec("elo_rating", 1500),
			spec("elo_delta_30d", 0),
			spec("form_trend_slope", 0),
			logSpec("manager_tenure_matches", 40),
		),
	}
}

func baseDomains() []FeatureDomain {
	return []FeatureDomain{
		formDomain(),
		fatigueDomain(),
		pressDomain(),
		tacticsDomain(),
		marketDomain(),
		weatherDomain(),
		squadDomain(),
		headToHeadDomain(),
		momentumDomain(),
	}
}

func withExtras(league string, extras ...FeatureSpec) *Schema {
	domains := baseDomains()
	if len(extras) > 0 {
		domains = append(domains, FeatureDomain{
			Name:     "league_extras",
			Features: extras,
		})
	}
	return &Schema{League: league, Domains: domains}
}

// EPLSchema covers the English Premier League (94 features)
func EPLSchema() *Schema {
	return withExtras("epl",
		spec("home_fixture_congestion_index", 0.4),
		spec("away_fixture_congestion_index", 0.4),
		logSpec("home_intl_break_minutes", 180),
		logSpec("away_intl_break_minutes", 180),
		spec("home_manager_change_30d", 0),
		spec("away_manager_change_30d", 0),
		spec("var_overturns_avg", 0.3),
		spec("referee_cards_avg", 4.2),
		spec("derby_flag", 0),
		spec("midweek_fixture_flag", 0),
		spec("big_six_clash_flag", 0),
		spec("rest_advantage_days", 0),
	)
}

// LaLigaSchema covers the Spanish Primera Division (86 features)
func LaLigaSchema() *Schema {
	return withExtras("laliga",
		rate("home_possession_style_index", 0.5),
		rate("away_possession_style_index", 0.5),
		spec("altitude_travel_flag", 0),
		spec("late_kickoff_flag", 0),
	)
}

// BundesligaSchema covers the German Bundesliga (88 features)
func BundesligaSchema() *Schema {
	return withExtras("bundesliga",
		spec("home_gegenpress_index", 55),
		spec("away_gegenpress_index", 55),
		spec("home_winter_break_rust", 0),
		spec("away_winter_break_rust", 0),
		spec("fifty_plus_one_away_support", 0.3),
		spec("referee_advantage_rate", 0.5),
	)
}

// SerieASchema covers the Italian Serie A (88 features)
func SerieASchema() *Schema {
	return withExtras("seriea",
		rate("home_defensive_block_index", 0.5),
		rate("away_defensive_block_index", 0.5),
		spec("home_tactical_fouls_avg", 2.1),
		spec("away_tactical_fouls_avg", 2.1),
		spec("derby_della_flag", 0),
		spec("august_heat_flag", 0),
	)
}

// Ligue1Schema covers the French Ligue 1 (82 features, base domains only)
func Ligue1Schema() *Schema {
	return withExtras("ligue1")
}

// BuiltinSchemas returns the supported league schemas keyed by canonical name
func BuiltinSchemas() map[string]*Schema {
	return map[string]*Schema{
		"epl":        EPLSchema(),
		"laliga":     LaLigaSchema(),
		"bundesliga": BundesligaSchema(),
		"seriea":     SerieASchema(),
		"ligue1":     Ligue1Schema(),
	}
}

// SchemaFor returns the built-in schema for a canonical league name
func SchemaFor(league string) (*Schema, error) {
	s, ok := BuiltinSchemas()[league]
	if !ok {
		return nil, fmt.Errorf("no feature schema for league %q", league)
	}
	return s, nil
}
