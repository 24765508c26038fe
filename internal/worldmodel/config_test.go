package worldmodel

import (
	"strings"
	"testing"
)

const sampleConfig = `{
	"defaultDogSpeed": 2.5,
	"defaultBagCapacity": 3,
	"dogRetirementTime": 60,
	"maps": [
		{
			"id": "park",
			"name": "Park",
			"roads": [{"x0":0,"y0":0,"x1":10,"y1":0}],
			"buildings": [{"x":1,"y":1,"w":2,"h":2}],
			"offices": [{"id":"office-1","x":8,"y":0,"offsetX":0,"offsetY":0}],
			"lootTypes": [{"value": 5}, {}]
		}
	]
}`

func TestLoadConfigDecodesMapTopology(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Maps) != 1 {
		t.Fatalf("expected one map, got %d", len(cfg.Maps))
	}
	if cfg.Maps[0].ID != "park" {
		t.Fatalf("unexpected map id %q", cfg.Maps[0].ID)
	}
}

func TestLoadConfigDefaultsRetirementTime(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`{"maps":[{"id":"a","roads":[{"x0":0,"y0":0,"x1":1,"y1":0}]}]}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DogRetirementTime != DefaultDogRetirementSeconds {
		t.Fatalf("expected default retirement time, got %v", cfg.DogRetirementTime)
	}
}

func TestLoadConfigRejectsNoMaps(t *testing.T) {
	_, err := LoadConfig(strings.NewReader(`{"maps":[]}`))
	if err == nil {
		t.Fatal("expected error for empty maps array")
	}
}

func TestLoadConfigRejectsBadRoad(t *testing.T) {
	_, err := LoadConfig(strings.NewReader(`{"maps":[{"id":"a","roads":[{"x0":0,"y0":0,"x1":1,"y1":1}]}]}`))
	if err == nil {
		t.Fatal("expected error for a diagonal road")
	}
}

func TestLoadConfigRejectsDuplicateMapID(t *testing.T) {
	doc := `{"maps":[
		{"id":"a","roads":[{"x0":0,"y0":0,"x1":1,"y1":0}]},
		{"id":"a","roads":[{"x0":0,"y0":0,"x1":1,"y1":0}]}
	]}`
	_, err := LoadConfig(strings.NewReader(doc))
	if err == nil {
		t.Fatal("expected error for duplicate map id")
	}
}

func TestBuildMapAppliesOverridesAndDefaults(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	world, err := NewWorld(cfg)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	m := world.Map("park")
	if m == nil {
		t.Fatal("expected park map to exist")
	}
	if m.DogSpeed != 2.5 {
		t.Fatalf("expected inherited dog speed 2.5, got %v", m.DogSpeed)
	}
	if m.BagCapacity != 3 {
		t.Fatalf("expected inherited bag capacity 3, got %v", m.BagCapacity)
	}
	if len(m.LootTypes) != 2 || m.LootTypes[0].Value != 5 || m.LootTypes[1].Value != 10 {
		t.Fatalf("unexpected loot types: %+v", m.LootTypes)
	}
}
