package fixtures

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/tilerender/vectormap/mvt"
	"github.com/tilerender/vectormap/tiledata"
)

func TestTileRoundTripsThroughParse(t *testing.T) {
	data := Tile(
		Layer{
			Name: "water",
			Polygons: []orb.Ring{
				{{0, 0}, {0.5, 0}, {0.5, 0.5}, {0, 0.5}, {0, 0}},
			},
		},
		Layer{
			Name: "place",
			Labels: []Label{
				{Text: "Springfield", X: 0.2, Y: 0.2, ScaleRank: 3},
			},
		},
	)

	result, err := mvt.Parse(data, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var sawWaterPolygon, sawLabel bool
	for _, f := range result.Features {
		if f.Layer == "water" && f.Kind == tiledata.KindPolygon {
			sawWaterPolygon = true
		}
	}
	for _, l := range result.Labels {
		if l.Text == "Springfield" && l.Layer == "place" {
			sawLabel = true
			// basePriority(100) - scalerank(3) = 97.
			if l.Priority != 97 {
				t.Errorf("Priority = %v, want 97 (basePriority 100 - scalerank 3)", l.Priority)
			}
		}
	}
	if !sawWaterPolygon {
		t.Error("expected a water polygon feature")
	}
	if !sawLabel {
		t.Error("expected a Springfield label in the place layer")
	}
}
