package aggregate

import (
	"fmt"
	"testing"

	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testLocA = "Vlissingen Haven"
	testLocB = "Westerschelde Terneuzen"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func bptr(v bool) *bool       { return &v }

func defaultRanking() domain.Ranking {
	return domain.NewRanking(domain.DefaultPriority())
}

func coordRow(location string, lat, lon float64) domain.Measurement {
	return domain.Measurement{Location: location, Lat: fptr(lat), Lon: fptr(lon)}
}

func TestGroupByLocation_Basic(t *testing.T) {
	rows := []domain.Measurement{
		coordRow(testLocB, 51.33, 3.83),
		coordRow(testLocA, 51.44, 3.57),
		coordRow(testLocA, 51.44, 3.57),
	}

	groups := GroupByLocation(rows, defaultRanking())

	require.Len(t, groups, 2)
	assert.Equal(t, testLocA, groups[0].Location)
	assert.Equal(t, 2, groups[0].N)
	assert.Equal(t, 51.44, groups[0].Lat)
	assert.Equal(t, 3.57, groups[0].Lon)
	assert.Equal(t, testLocB, groups[1].Location)
	assert.Equal(t, 1, groups[1].N)
}

func TestGroupByLocation_SkipsRowsWithoutCoordinates(t *testing.T) {
	rows := []domain.Measurement{
		{Location: testLocA},
		{Location: testLocA, Lat: fptr(51.44)},
		coordRow(testLocA, 51.44, 3.57),
	}

	groups := GroupByLocation(rows, defaultRanking())

	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].N)
}

func TestGroupByLocation_UnknownLocationLabel(t *testing.T) {
	rows := []domain.Measurement{
		coordRow("", 51.5, 3.6),
		coordRow("", 51.5, 3.6),
	}

	groups := GroupByLocation(rows, defaultRanking())

	require.Len(t, groups, 1)
	assert.Equal(t, domain.UnknownLocationLabel, groups[0].Location)
	assert.Equal(t, 2, groups[0].N)
}

func TestGroupByLocation_ExactCoordinateKeys(t *testing.T) {
	// Same name with coordinate noise forms separate groups.
	rows := []domain.Measurement{
		coordRow(testLocA, 51.4425, 3.5735),
		coordRow(testLocA, 51.4426, 3.5735),
	}

	groups := GroupByLocation(rows, defaultRanking())

	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].N)
	assert.Equal(t, 1, groups[1].N)
}

func TestGroupByLocation_BelowLOQStats(t *testing.T) {
	below := coordRow(testLocA, 51.44, 3.57)
	below.BelowLOQ = bptr(true)
	above := coordRow(testLocA, 51.44, 3.57)
	above.BelowLOQ = bptr(false)
	unknown := coordRow(testLocA, 51.44, 3.57) // missing flag counts as not below

	groups := GroupByLocation([]domain.Measurement{below, above, unknown}, defaultRanking())

	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].N)
	assert.Equal(t, 1, groups[0].BelowLOQ)
	assert.Equal(t, 33.3, groups[0].BelowLOQPct)
}

func TestGroupByLocation_RowOrdering(t *testing.T) {
	mk := func(substance string, year *int, value *float64) domain.Measurement {
		m := coordRow(testLocA, 51.44, 3.57)
		m.Substance = substance
		m.Year = year
		m.Value = value
		return m
	}

	rows := []domain.Measurement{
		mk("PFBA", iptr(2023), fptr(9)), // unlisted substance sorts last
		mk("PFOS", nil, fptr(4)),        // missing year sorts after real years
		mk("PFOA", iptr(2020), fptr(2)),
		mk("PFOS", iptr(2019), fptr(5)),
		mk("PFOS", iptr(2021), fptr(7)),
		mk("PFOS", iptr(2021), fptr(9)), // same year, higher value first
		mk("PFOS", iptr(2021), nil),     // missing value sorts last in its year
	}

	groups := GroupByLocation(rows, defaultRanking())

	require.Len(t, groups, 1)
	got := make([]string, 0, len(groups[0].Rows))
	for _, m := range groups[0].Rows {
		got = append(got, fmt.Sprintf("%s/%g/%g", m.Substance, sortYear(m.Year), sortValue(m.Value)))
	}
	want := []string{
		"PFOS/2021/9",
		"PFOS/2021/7",
		"PFOS/2021/-1",
		"PFOS/2019/5",
		"PFOS/-1/4",
		"PFOA/2020/2",
		"PFBA/2023/9",
	}
	assert.Equal(t, want, got)
}

func TestGroupByLocation_DetailCap(t *testing.T) {
	t.Run("over the cap", func(t *testing.T) {
		rows := make([]domain.Measurement, 0, DetailRowCap+5)
		for i := 0; i < DetailRowCap+5; i++ {
			m := coordRow(testLocA, 51.44, 3.57)
			m.Substance = "PFOS"
			m.Year = iptr(2020)
			m.Value = fptr(float64(i))
			rows = append(rows, m)
		}

		groups := GroupByLocation(rows, defaultRanking())

		require.Len(t, groups, 1)
		assert.Equal(t, DetailRowCap+5, groups[0].N)
		assert.Len(t, groups[0].Rows, DetailRowCap)
		assert.Equal(t, 5, groups[0].Remainder)
	})

	t.Run("exactly at the cap", func(t *testing.T) {
		rows := make([]domain.Measurement, 0, DetailRowCap)
		for i := 0; i < DetailRowCap; i++ {
			rows = append(rows, coordRow(testLocA, 51.44, 3.57))
		}

		groups := GroupByLocation(rows, defaultRanking())

		require.Len(t, groups, 1)
		assert.Len(t, groups[0].Rows, DetailRowCap)
		assert.Zero(t, groups[0].Remainder)
	})
}

func TestGroupByLocation_EmptyInput(t *testing.T) {
	assert.Empty(t, GroupByLocation(nil, defaultRanking()))
}

func TestGroupByLocation_EmptyGroupPercentage(t *testing.T) {
	// percentage is defined as 0 when n is 0
	assert.Zero(t, roundOne(percentage(0, 0)))
}

func TestMapCenter(t *testing.T) {
	t.Run("mean of rows inside the regional box", func(t *testing.T) {
		rows := []domain.Measurement{
			coordRow(testLocA, 51.0, 3.5),
			coordRow(testLocB, 52.0, 4.5),
			coordRow("Bermuda", 32.3, -64.8), // outside the box, ignored
		}

		lat, lon := MapCenter(rows)

		assert.InDelta(t, 51.5, lat, 1e-9)
		assert.InDelta(t, 4.0, lon, 1e-9)
	})

	t.Run("no rows in box falls back to default", func(t *testing.T) {
		lat, lon := MapCenter([]domain.Measurement{coordRow("Bermuda", 32.3, -64.8)})

		assert.Equal(t, DefaultCenterLat, lat)
		assert.Equal(t, DefaultCenterLon, lon)
	})

	t.Run("empty input falls back to default", func(t *testing.T) {
		lat, lon := MapCenter(nil)

		assert.Equal(t, DefaultCenterLat, lat)
		assert.Equal(t, DefaultCenterLon, lon)
	})
}
