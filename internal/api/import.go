package api

import (
	"net/http"

	"tourplan/internal/integrations"
	"tourplan/internal/integrations/csvfile"
	"tourplan/internal/model"
)

var placeSources = map[string]integrations.PlaceSource{
	"csv": csvfile.Adapter{},
}

// PlacesImportHandler handles POST /v1/places/import: a CSV body is
// converted into candidate places ready to paste into a plan request.
func (s *Server) PlacesImportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
	p := s.getPrincipal(r)
	if !p.CanPlan() { writeProblem(w, 403, "Forbidden", "planner or admin required", r.URL.Path); return }
	format := r.URL.Query().Get("format")
	if format == "" { format = "csv" }
	src, ok := placeSources[format]
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Unknown format", format, r.URL.Path)
		return
	}
	places, err := src.Fetch(r.Body)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Import failed", err.Error(), r.URL.Path)
		return
	}
	if places == nil { places = []model.PlaceIn{} }
	writeJSON(w, http.StatusOK, map[string]any{"source": src.Name(), "places": places})
}
