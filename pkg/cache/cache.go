// Package cache holds the client-side view of the telemetry API: platforms by
// id (summary or detailed) and record series by sensor id, kept in two
// separately typed maps.
package cache

import (
	"slices"

	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/models"
)

// ViewCache is not safe for concurrent use; its owner serializes access.
type ViewCache struct {
	order             []string
	platformsByID     map[string]models.Platform
	detailed          map[string]struct{}
	recordsBySensorID map[string][]models.Record
}

type Totals struct {
	Platforms int `json:"platforms"`
	Sensors   int `json:"sensors"`
	Fleets    int `json:"fleets"`
}

func New() *ViewCache {
	c := &ViewCache{}
	c.Reset()
	return c
}

func (c *ViewCache) Reset() {
	c.order = nil
	c.platformsByID = make(map[string]models.Platform)
	c.detailed = make(map[string]struct{})
	c.recordsBySensorID = make(map[string][]models.Record)
}

// ReplacePlatforms swaps in a fresh platform list. Detail already fetched for a
// platform that is still listed survives; everything else is dropped, except
// the detailed entries named in keep, which stay even when no longer listed.
func (c *ViewCache) ReplacePlatforms(list []models.Platform, keep ...string) {
	platforms := make(map[string]models.Platform, len(list))
	detailed := make(map[string]struct{})
	order := make([]string, 0, len(list))

	for _, p := range list {
		if _, dup := platforms[p.ID]; !dup {
			order = append(order, p.ID)
		}
		if _, ok := c.detailed[p.ID]; ok {
			platforms[p.ID] = c.platformsByID[p.ID]
			detailed[p.ID] = struct{}{}
			continue
		}
		platforms[p.ID] = p.Summary()
	}

	for _, id := range keep {
		if _, listed := platforms[id]; listed {
			continue
		}
		if _, ok := c.detailed[id]; ok {
			order = append(order, id)
			platforms[id] = c.platformsByID[id]
			detailed[id] = struct{}{}
		}
	}

	c.order = order
	c.platformsByID = platforms
	c.detailed = detailed
}

// PutDetail stores the detailed form of a platform, overwriting its summary.
func (c *ViewCache) PutDetail(p models.Platform) {
	if _, ok := c.platformsByID[p.ID]; !ok {
		c.order = append(c.order, p.ID)
	}
	c.platformsByID[p.ID] = p
	c.detailed[p.ID] = struct{}{}
}

func (c *ViewCache) HasDetail(platformID string) bool {
	_, ok := c.detailed[platformID]
	return ok
}

func (c *ViewCache) Platform(platformID string) (models.Platform, bool) {
	p, ok := c.platformsByID[platformID]
	return clonePlatform(p), ok
}

// Platforms returns the cached platforms in list order.
func (c *ViewCache) Platforms() []models.Platform {
	return common.Mapper(c.order, func(id string) models.Platform {
		return clonePlatform(c.platformsByID[id])
	})
}

// MissingDetail returns, in list order, the ids of platforms without detail.
func (c *ViewCache) MissingDetail() []string {
	missing := make([]string, 0, len(c.order)-len(c.detailed))
	for _, id := range c.order {
		if !c.HasDetail(id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// SensorCount returns the sensor count of a platform and whether its detail is known.
func (c *ViewCache) SensorCount(platformID string) (int, bool) {
	if !c.HasDetail(platformID) {
		return 0, false
	}
	return len(c.platformsByID[platformID].Sensors), true
}

func (c *ViewCache) PutRecords(sensorID string, records []models.Record) {
	c.recordsBySensorID[sensorID] = slices.Clone(records)
}

func (c *ViewCache) HasRecords(sensorID string) bool {
	_, ok := c.recordsBySensorID[sensorID]
	return ok
}

func (c *ViewCache) Records(sensorID string) ([]models.Record, bool) {
	records, ok := c.recordsBySensorID[sensorID]
	if !ok {
		return nil, false
	}
	return slices.Clone(records), true
}

func (c *ViewCache) Len() int {
	return len(c.order)
}

func (c *ViewCache) DetailLen() int {
	return len(c.detailed)
}

func (c *ViewCache) RecordSeriesLen() int {
	return len(c.recordsBySensorID)
}

// Totals are recomputed from the current contents on every call. Platforms
// without detail contribute no sensors.
func (c *ViewCache) Totals() Totals {
	platforms := c.Platforms()
	return Totals{
		Platforms: len(platforms),
		Sensors: common.Reducer(platforms, func(acc int, p models.Platform) int {
			n, _ := c.SensorCount(p.ID)
			return acc + n
		}, 0),
		Fleets: common.Distinct(platforms, func(p models.Platform) string { return p.Fleet }),
	}
}

func clonePlatform(p models.Platform) models.Platform {
	p.Sensors = slices.Clone(p.Sensors)
	return p
}
