package worldmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"lostandfound/server/internal/geometry"
)

// ErrConfiguration wraps malformed or incomplete world configuration. It is
// fatal at startup per the error taxonomy.
var ErrConfiguration = errors.New("world configuration error")

// DefaultDogRetirementSeconds is used when the top-level config omits
// dogRetirementTime.
const DefaultDogRetirementSeconds = 60.0

// Config is the decoded, pre-validated shape of the world configuration
// document described in the external interfaces section: a set of per-map
// topologies plus process-wide defaults.
type Config struct {
	DefaultDogSpeed     float64           `json:"defaultDogSpeed"`
	DefaultBagCapacity  int               `json:"defaultBagCapacity"`
	DogRetirementTime   float64           `json:"dogRetirementTime"`
	LootGeneratorConfig json.RawMessage   `json:"lootGeneratorConfig,omitempty"`
	Maps                []MapConfig       `json:"maps"`
}

// MapConfig is the decoded shape of one entry in the "maps" array.
type MapConfig struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	DogSpeed    *float64       `json:"dogSpeed,omitempty"`
	BagCapacity *int           `json:"bagCapacity,omitempty"`
	Roads       []RoadConfig   `json:"roads"`
	Buildings   []RectConfig   `json:"buildings"`
	Offices     []OfficeConfig `json:"offices"`
	LootTypes   []LootTypeConfig `json:"lootTypes"`
}

// RoadConfig mirrors the {x0,y0,x1,y0} / {x0,y0,x0,y1} road entry shape.
type RoadConfig struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// RectConfig mirrors a building's {x,y,w,h} rectangle entry.
type RectConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// OfficeConfig mirrors an office's {id,x,y,offsetX,offsetY} entry.
type OfficeConfig struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	OffsetX int     `json:"offsetX"`
	OffsetY int     `json:"offsetY"`
}

// LootTypeConfig mirrors a loot-type catalog entry.
type LootTypeConfig struct {
	Value *float64 `json:"value,omitempty"`
}

// LoadConfig decodes and validates the world configuration document from r.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrConfiguration, err)
	}
	if cfg.DogRetirementTime <= 0 {
		cfg.DogRetirementTime = DefaultDogRetirementSeconds
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Maps) == 0 {
		return fmt.Errorf("%w: at least one map is required", ErrConfiguration)
	}
	seen := make(map[string]struct{}, len(c.Maps))
	for i, m := range c.Maps {
		if m.ID == "" {
			return fmt.Errorf("%w: maps[%d].id must not be empty", ErrConfiguration, i)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("%w: duplicate map id %q", ErrConfiguration, m.ID)
		}
		seen[m.ID] = struct{}{}
		if len(m.Roads) == 0 {
			return fmt.Errorf("%w: map %q has no roads", ErrConfiguration, m.ID)
		}
		for j, road := range m.Roads {
			if _, _, err := roadToStrip(road); err != nil {
				return fmt.Errorf("%w: map %q roads[%d]: %v", ErrConfiguration, m.ID, j, err)
			}
		}
		for j, office := range m.Offices {
			if office.ID == "" {
				return fmt.Errorf("%w: map %q offices[%d].id must not be empty", ErrConfiguration, m.ID, j)
			}
		}
	}
	return nil
}

// roadToStrip translates a RoadConfig into a geometry.RoadStrip, rejecting
// any entry that is neither purely horizontal nor purely vertical.
func roadToStrip(r RoadConfig) (geometry.RoadStrip, geometry.Orientation, error) {
	switch {
	case r.Y0 == r.Y1 && r.X0 != r.X1:
		return geometry.RoadStrip{
			Orientation: geometry.Horizontal,
			Start:       geometry.Point{X: r.X0, Y: r.Y0},
			End:         r.X1,
		}, geometry.Horizontal, nil
	case r.X0 == r.X1 && r.Y0 != r.Y1:
		return geometry.RoadStrip{
			Orientation: geometry.Vertical,
			Start:       geometry.Point{X: r.X0, Y: r.Y0},
			End:         r.Y1,
		}, geometry.Vertical, nil
	default:
		return geometry.RoadStrip{}, 0, fmt.Errorf("road must be purely horizontal or vertical, got (%d,%d)-(%d,%d)", r.X0, r.Y0, r.X1, r.Y1)
	}
}
