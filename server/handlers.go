package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cenvi-org/geodash/engine"
)

const previewRows = 20

// handleUploadDataset ingests a multipart file upload as the new active
// dataset. The field name is "file"; the original filename selects the
// parser.
func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadBytes+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read upload failed")
		return
	}
	if int64(len(data)) > s.maxUploadBytes {
		s.writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
		return
	}

	ds, err := s.dash.Ingest(header.Filename, data)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, datasetSummary(ds, previewRows))
}

// handleGetDataset returns metadata and a preview of the active dataset.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds := s.dash.Dataset()
	if ds == nil {
		s.writeError(w, http.StatusNotFound, "no dataset loaded")
		return
	}
	s.writeJSON(w, http.StatusOK, datasetSummary(ds, previewRows))
}

func datasetSummary(ds *engine.Dataset, preview int) map[string]any {
	return map[string]any{
		"sourceName": ds.SourceName,
		"columns":    ds.Columns,
		"numeric":    ds.Numeric,
		"rowCount":   len(ds.Rows),
		"latColumn":  ds.LatColumn,
		"lngColumn":  ds.LngColumn,
		"nameColumn": ds.NameColumn,
		"preview":    ds.Preview(preview),
	}
}

// handleGetRow resolves one row by sequence id, with its joined child
// records. This backs the map surface's marker-click detail view.
func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid row sequence id")
		return
	}
	row, children, ok := s.dash.RowBySeq(seq)
	if !ok {
		s.writeError(w, http.StatusNotFound, "row not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"row":      row,
		"children": children,
	})
}

func (s *Server) handleConfirmColumns(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active  []string          `json:"active"`
		Renames map[string]string `json:"renames"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.dash.ConfirmColumns(req.Active, req.Renames); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "columns updated"})
}

func (s *Server) handleSetGeoColumns(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LatColumn string `json:"latColumn"`
		LngColumn string `json:"lngColumn"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.dash.SetGeoColumns(req.LatColumn, req.LngColumn); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "geo columns updated"})
}

func (s *Server) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"filters":     s.dash.Filters(),
		"matchedRows": s.dash.FilteredRows().Len(),
	})
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var filters []engine.Filter
	if !s.decode(w, r, &filters) {
		return
	}
	if err := s.dash.SetFilters(filters); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "filters updated",
		"matchedRows": s.dash.FilteredRows().Len(),
	})
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	entries, err := s.dash.Summary()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSetSummaryColumn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Column string `json:"column"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.dash.SetSummaryColumn(req.Column); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "summary column updated"})
}

// handleDrillDown returns the filtered rows behind one summary bucket.
// The bucket label comes in as ?value=.
func (s *Server) handleDrillDown(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("value")
	if value == "" {
		s.writeError(w, http.StatusBadRequest, "value query parameter is required")
		return
	}
	s.writeJSON(w, http.StatusOK, s.dash.DrillDown(value))
}

func (s *Server) handleListPivots(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dash.Pivots())
}

func (s *Server) handleAddPivot(w http.ResponseWriter, r *http.Request) {
	var cfg engine.PivotConfig
	if !s.decode(w, r, &cfg) {
		return
	}
	created, err := s.dash.AddPivot(cfg)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetPivot(w http.ResponseWriter, r *http.Request) {
	result, err := s.dash.Pivot(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdatePivot(w http.ResponseWriter, r *http.Request) {
	var cfg engine.PivotConfig
	if !s.decode(w, r, &cfg) {
		return
	}
	cfg.ID = chi.URLParam(r, "id")
	if err := s.dash.UpdatePivot(cfg); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "pivot updated"})
}

func (s *Server) handleRemovePivot(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.RemovePivot(chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "pivot removed"})
}

func (s *Server) handleSortPivot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field  engine.PivotSortField `json:"field"`
		Column string                `json:"column"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.dash.SortPivot(chi.URLParam(r, "id"), req.Field, req.Column); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "sort updated"})
}

func (s *Server) handleGeoPoints(w http.ResponseWriter, r *http.Request) {
	points, box, err := s.dash.GeoPoints()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"points": points,
		"bounds": box,
	})
}

func (s *Server) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	pivotID := r.URL.Query().Get("pivot")
	blob, err := s.dash.ExportWorkbook(pivotID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="pivot-analysis.xlsx"`)
	_, _ = w.Write(blob)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	blob, err := s.dash.ExportCSV()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="dataset.csv"`)
	_, _ = w.Write(blob)
}

func (s *Server) handleExportHTML(w http.ResponseWriter, r *http.Request) {
	blob, err := s.dash.ExportHTML()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write(blob)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.Reset(); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "session reset"})
}

// decode reads a JSON request body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
