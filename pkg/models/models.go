package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/spf13/cast"
)

// Platform is a device or vehicle tracked by the telemetry API. Sensors is only
// populated by the detail endpoint; list responses leave it empty.
type Platform struct {
	ID      string   `json:"id" gorm:"primaryKey"`
	Name    string   `json:"name"`
	Fleet   string   `json:"fleet" gorm:"index"`
	Img     string   `json:"img"`
	Sensors []Sensor `json:"sensors,omitempty" gorm:"foreignKey:PlatformID;references:ID"`
}

type Sensor struct {
	ID         string `json:"id" gorm:"primaryKey"`
	PlatformID string `json:"-" gorm:"index"`
	Name       string `json:"name"`
	Type       string `json:"type"`

	Records []Record `json:"-" gorm:"foreignKey:SensorID;references:ID"`
}

// Record is one timestamped sensor reading. Timestamps and values the API
// sends in a shape that cannot be parsed are kept verbatim in TsRaw and
// ValueRaw and rendered as received.
type Record struct {
	ID       string    `json:"id" gorm:"primaryKey"`
	SensorID string    `json:"-" gorm:"index"`
	Ts       time.Time `json:"ts" gorm:"index"`
	Value    float64   `json:"value"`

	TsRaw    string `json:"-" gorm:"-"`
	ValueRaw string `json:"-" gorm:"-"`
}

type recordJSON struct {
	ID    string          `json:"id"`
	Ts    json.RawMessage `json:"ts"`
	Value json.RawMessage `json:"value"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	var err error
	out := recordJSON{ID: r.ID}

	if r.TsRaw != "" {
		out.Ts, err = json.Marshal(r.TsRaw)
	} else {
		out.Ts, err = json.Marshal(r.Ts)
	}
	if err != nil {
		return nil, err
	}

	if r.ValueRaw != "" {
		out.Value, err = json.Marshal(r.ValueRaw)
	} else {
		out.Value, err = json.Marshal(r.Value)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts ts as any date layout cast understands or as unix
// seconds, and value as a number or a numeric string. Anything else lands in
// the raw fields instead of failing the whole series.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*r = Record{ID: in.ID}

	if ts, ok := scalar(in.Ts); ok {
		if t, err := cast.ToTimeE(ts); err == nil {
			r.Ts = t
		} else {
			r.TsRaw = rawText(in.Ts, ts)
		}
	}
	if v, ok := scalar(in.Value); ok {
		if f, err := cast.ToFloat64E(v); err == nil {
			r.Value = f
		} else {
			r.ValueRaw = rawText(in.Value, v)
		}
	}
	return nil
}

// scalar decodes one JSON value keeping numbers as json.Number. Missing and
// null values report false.
func scalar(raw json.RawMessage) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil || v == nil {
		return nil, false
	}
	return v, true
}

func rawText(raw json.RawMessage, decoded any) string {
	if s, ok := decoded.(string); ok {
		return s
	}
	return string(raw)
}

// Summary drops the sensors so the platform looks like a list entry.
func (p Platform) Summary() Platform {
	p.Sensors = nil
	return p
}

// SensorByID looks up a sensor of a detailed platform.
func (p Platform) SensorByID(sensorID string) (Sensor, bool) {
	for _, s := range p.Sensors {
		if s.ID == sensorID {
			return s, true
		}
	}
	return Sensor{}, false
}
