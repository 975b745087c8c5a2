package app

import (
	"testing"
	"time"

	"rastercube/domain/grid"
	apperrors "rastercube/internal/errors"
	"rastercube/internal/testkit"
	"rastercube/internal/timeparse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loaded(when time.Time, geo grid.Geometry, fill float64, order int) loadedBand {
	data := make([]float64, geo.Rows()*geo.Cols())
	for i := range data {
		data[i] = fill
	}
	return loadedBand{
		variable: "v",
		when:     when,
		geo:      geo,
		plane:    grid.Eager(geo.Rows(), geo.Cols(), data),
		order:    order,
	}
}

func TestMergeVariableSortsTimedPlanes(t *testing.T) {
	geo := testkit.Grid(2, 2)
	t1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	t3 := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	// Deliberately shuffled input order.
	bands := []loadedBand{
		loaded(t3, geo, 3, 0),
		loaded(t1, geo, 1, 1),
		loaded(t2, geo, 2, 2),
	}

	array, diags, err := mergeVariable("v", bands, false)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, []time.Time{t1, t2, t3}, array.Times())

	v, err := array.PlaneAt(0).At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestMergeVariableStableOnEqualTimes(t *testing.T) {
	geo := testkit.Grid(2, 2)
	ts := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

	bands := []loadedBand{
		loaded(ts, geo, 10, 0),
		loaded(ts, geo, 20, 1),
	}

	array, _, err := mergeVariable("v", bands, false)
	require.NoError(t, err)

	first, err := array.PlaneAt(0).At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, first, "ties must preserve encounter order")
}

func TestMergeVariableSingleTimedPlaneKeptAsIs(t *testing.T) {
	geo := testkit.Grid(3, 3)
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	array, diags, err := mergeVariable("v", []loadedBand{loaded(ts, geo, 1, 0)}, false)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, 1, array.TimeLen())
}

func TestMergeVariableUntimedKeepsFirstAndReportsSurplus(t *testing.T) {
	geo := testkit.Grid(2, 2)

	bands := []loadedBand{
		loaded(timeparse.Sentinel, geo, 1, 0),
		loaded(timeparse.Sentinel, geo, 2, 1),
	}

	array, diags, err := mergeVariable("v", bands, false)
	require.NoError(t, err)
	assert.False(t, array.HasTime())

	v, err := array.PlaneAt(0).At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	require.Len(t, diags, 1)
	assert.Equal(t, diagSurplusPlanes, diags[0].Code)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
}

func TestMergeVariableRejectsMixedTimedAndUntimed(t *testing.T) {
	geo := testkit.Grid(2, 2)
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	bands := []loadedBand{
		loaded(ts, geo, 1, 0),
		loaded(timeparse.Sentinel, geo, 2, 1),
	}

	_, _, err := mergeVariable("v", bands, false)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDimensionMismatch, apperrors.GetCode(err))
}

func TestMergeVariableRejectsMismatchedGridsWithoutAlignment(t *testing.T) {
	t1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	bands := []loadedBand{
		loaded(t1, testkit.Grid(2, 2), 1, 0),
		loaded(t2, testkit.Grid(3, 3), 2, 1),
	}

	_, _, err := mergeVariable("v", bands, false)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDimensionMismatch, apperrors.GetCode(err))
}

func TestMergeVariableAlignsWhenExplicitlyEnabled(t *testing.T) {
	t1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	ref := testkit.Grid(2, 2)
	shifted := testkit.Grid(2, 2)
	shifted.X = []float64{0.1, 1.1}

	bands := []loadedBand{
		loaded(t1, ref, 1, 0),
		loaded(t2, shifted, 2, 1),
	}

	array, _, err := mergeVariable("v", bands, true)
	require.NoError(t, err)
	assert.Equal(t, 2, array.TimeLen())
	assert.True(t, array.Geometry().SameCoords(ref))
}
