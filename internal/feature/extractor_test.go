package feature

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Scardubu/sabiscore/internal/models"
)

func TestBuiltinSchemaLengths(t *testing.T) {
	want := map[string]int{
		"epl":        94,
		"laliga":     86,
		"bundesliga": 88,
		"seriea":     88,
		"ligue1":     82,
	}
	for league, length := range want {
		schema, err := SchemaFor(league)
		require.NoError(t, err)
		assert.Equal(t, length, schema.Length(), league)
		assert.Len(t, schema.Keys(), length, league)
	}

	_, err := SchemaFor("mls")
	assert.Error(t, err)
}

func TestExtractorDeterminism(t *testing.T) {
	schema := EPLSchema()
	ex, err := NewExtractor(schema)
	require.NoError(t, err)

	mc := models.MatchContext{
		"home_elo_rating":       1650,
		"away_elo_rating":       1540,
		"home_goals_for_avg5":   1.8,
		"weather_rain_mm":       12,
		"home_form_points_last5": 11,
	}

	first, err := ex.Extract(context.Background(), mc)
	require.NoError(t, err)
	require.Len(t, first, schema.Length())

	// Same context always yields the identical vector
	for i := 0; i < 5; i++ {
		again, err := ex.Extract(context.Background(), mc)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExtractorDefaultsForMissingKeys(t *testing.T) {
	schema := Ligue1Schema()
	ex, err := NewExtractor(schema)
	require.NoError(t, err)

	vec, err := ex.Extract(context.Background(), models.MatchContext{})
	require.NoError(t, err)
	require.Len(t, vec, schema.Length())

	// No feature may come out NaN or infinite from an empty context
	for i, v := range vec {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "feature %d", i)
	}
}

func TestExtractorRejectsNonFiniteValues(t *testing.T) {
	schema := Ligue1Schema()
	ex, err := NewExtractor(schema)
	require.NoError(t, err)

	dirty := models.MatchContext{
		"home_elo_rating": math.NaN(),
		"away_elo_rating": math.Inf(1),
	}
	vec, err := ex.Extract(context.Background(), dirty)
	require.NoError(t, err)
	for i, v := range vec {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "feature %d", i)
	}
}

func TestExtractorCancelledContext(t *testing.T) {
	ex, err := NewExtractor(EPLSchema())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ex.Extract(ctx, models.MatchContext{"home_elo_rating": 1600})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))
}

func TestNewExtractorRejectsEmptySchema(t *testing.T) {
	_, err := NewExtractor(nil)
	assert.Error(t, err)

	_, err = NewExtractor(&Schema{League: "empty"})
	assert.Error(t, err)
}
