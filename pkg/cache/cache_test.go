package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/platform-dashboard/pkg/models"
)

func summaries(fleets ...string) []models.Platform {
	ids := []string{"A", "B", "C", "D", "E", "F", "G"}
	out := make([]models.Platform, len(fleets))
	for i, f := range fleets {
		out[i] = models.Platform{ID: ids[i], Name: "platform " + ids[i], Fleet: f}
	}
	return out
}

func detail(id, fleet string, sensors int) models.Platform {
	p := models.Platform{ID: id, Name: "platform " + id, Fleet: fleet}
	for i := range sensors {
		p.Sensors = append(p.Sensors, models.Sensor{ID: id + "-s" + string(rune('0'+i)), Name: "sensor", Type: "temperature"})
	}
	return p
}

func TestReplacePlatforms(t *testing.T) {
	c := New()
	list := summaries("north", "north", "south")
	list[0].Sensors = []models.Sensor{{ID: "ignored"}}

	c.ReplacePlatforms(list)

	require.Equal(t, 3, c.Len())
	for _, p := range c.Platforms() {
		assert.Empty(t, p.Sensors)
		assert.False(t, c.HasDetail(p.ID))
	}
	assert.Equal(t, []string{"A", "B", "C"}, c.MissingDetail())
}

func TestReplacePlatformsKeepsFetchedDetail(t *testing.T) {
	c := New()
	c.ReplacePlatforms(summaries("north", "north", "south"))
	c.PutDetail(detail("B", "north", 3))

	c.ReplacePlatforms(summaries("north", "north"))

	assert.Equal(t, 2, c.Len())
	assert.True(t, c.HasDetail("B"))
	n, ok := c.SensorCount("B")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = c.Platform("C")
	assert.False(t, ok)
}

func TestReplacePlatformsKeepsNamedDetail(t *testing.T) {
	c := New()
	c.ReplacePlatforms(summaries("north", "south", "harbor"))
	c.PutDetail(detail("A", "north", 2))

	c.ReplacePlatforms(summaries("north", "south")[1:], "A", "C")

	assert.Equal(t, 2, c.Len())
	p, ok := c.Platform("A")
	require.True(t, ok)
	assert.Len(t, p.Sensors, 2)
	assert.True(t, c.HasDetail("A"))
	// only detailed entries are kept
	_, ok = c.Platform("C")
	assert.False(t, ok)
}

func TestPutDetailOverwritesSummary(t *testing.T) {
	c := New()
	c.ReplacePlatforms(summaries("north"))
	c.PutDetail(detail("A", "north", 2))

	p, ok := c.Platform("A")
	require.True(t, ok)
	assert.Len(t, p.Sensors, 2)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.DetailLen())

	// mutating a returned platform does not leak into the cache
	p.Sensors[0].Name = "changed"
	again, _ := c.Platform("A")
	assert.Equal(t, "sensor", again.Sensors[0].Name)
}

func TestRecordsKeyedBySensor(t *testing.T) {
	c := New()
	now := time.Now().UTC()
	records := []models.Record{
		{ID: "r2", Ts: now, Value: 2},
		{ID: "r1", Ts: now.Add(-time.Minute), Value: 1},
	}
	c.PutRecords("A-s0", records)

	got, ok := c.Records("A-s0")
	require.True(t, ok)
	assert.Equal(t, records, got, "order as returned by the API")

	_, ok = c.Records("A")
	assert.False(t, ok, "platform ids never hit the record map")
	assert.Equal(t, 1, c.RecordSeriesLen())
}

func TestTotals(t *testing.T) {
	c := New()
	c.ReplacePlatforms(summaries("north", "north", "south"))

	assert.Equal(t, Totals{Platforms: 3, Sensors: 0, Fleets: 2}, c.Totals())

	c.PutDetail(detail("C", "south", 1))
	c.PutDetail(detail("A", "north", 2))
	assert.Equal(t, 3, c.Totals().Sensors)

	c.PutDetail(detail("B", "north", 3))
	assert.Equal(t, Totals{Platforms: 3, Sensors: 6, Fleets: 2}, c.Totals())
}

func TestReset(t *testing.T) {
	c := New()
	c.ReplacePlatforms(summaries("north", "south"))
	c.PutDetail(detail("A", "north", 1))
	c.PutRecords("A-s0", []models.Record{{ID: "r1"}})

	c.Reset()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.DetailLen())
	assert.Equal(t, 0, c.RecordSeriesLen())
	assert.Equal(t, Totals{}, c.Totals())
}
