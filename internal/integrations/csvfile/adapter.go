package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tourplan/internal/model"
)

// Adapter parses candidate places from a CSV feed with the header
// name,address,lat,lng,rating,ratingsTotal,visitTimeMin,types.
// Types are pipe-separated. Missing numeric cells default to zero.
type Adapter struct{}

func (a Adapter) Name() string { return "csv-file" }

func (a Adapter) Fetch(r io.Reader) ([]model.PlaceIn, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := col["name"]; !ok {
		return nil, fmt.Errorf("missing name column")
	}
	var out []model.PlaceIn
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		get := func(name string) string {
			if i, ok := col[name]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		p := model.PlaceIn{
			Name:    get("name"),
			Address: get("address"),
		}
		if p.Name == "" {
			return nil, fmt.Errorf("line %d: missing name", line)
		}
		lat, errLat := strconv.ParseFloat(get("lat"), 64)
		lng, errLng := strconv.ParseFloat(get("lng"), 64)
		if errLat == nil && errLng == nil {
			p.Location = &model.GeoPoint{Lat: lat, Lng: lng}
		}
		if v := get("rating"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil { p.Rating = f }
		}
		if v := get("ratingstotal"); v != "" {
			if n, err := strconv.Atoi(v); err == nil { p.RatingsTotal = n }
		}
		if v := get("visittimemin"); v != "" {
			if n, err := strconv.Atoi(v); err == nil { p.VisitTimeMin = n }
		}
		if v := get("types"); v != "" {
			for _, t := range strings.Split(v, "|") {
				if t = strings.TrimSpace(t); t != "" { p.Types = append(p.Types, t) }
			}
		}
		out = append(out, p)
	}
	return out, nil
}
