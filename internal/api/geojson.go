package api

import (
	"github.com/mr1hm/go-seismic-sources/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry holds a LineString ([][]float64) or Polygon ([][][]float64).
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

func toGeoJSON(sources []models.StoredSource) FeatureCollection {
	features := make([]Feature, 0, len(sources))

	for _, s := range sources {
		props := map[string]any{
			"id":            s.ID,
			"run_id":        s.RunID,
			"index":         s.Index,
			"label":         s.Label,
			"kind":          s.Kind.String(),
			"max_magnitude": s.MaxMagnitude,
			"upper_depth":   s.UpperDepth,
		}
		if s.Kind == models.KindFault {
			props["dip"] = s.Dip
			props["rake"] = s.Rake
			props["lower_depth"] = s.LowerDepth
		}

		features = append(features, Feature{
			Type:       "Feature",
			Geometry:   geometryOf(s),
			Properties: props,
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

func geometryOf(s models.StoredSource) Geometry {
	line := make([][]float64, 0, len(s.Vertices)+1)
	for _, v := range s.Vertices {
		line = append(line, []float64{v.Longitude, v.Latitude})
	}

	if s.Kind != models.KindArea {
		return Geometry{Type: "LineString", Coordinates: line}
	}
	// GeoJSON rings are closed
	if len(line) > 0 {
		line = append(line, line[0])
	}
	return Geometry{Type: "Polygon", Coordinates: [][][]float64{line}}
}
