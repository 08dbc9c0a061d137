package dashboard

import (
	"bytes"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/cenvi-org/geodash/engine"
	"github.com/cenvi-org/geodash/export"
	"github.com/cenvi-org/geodash/ingest"
	"github.com/cenvi-org/geodash/session"
)

// ============================================================================
// DASHBOARD — Session Controller
// ============================================================================
// Owns the single active dataset plus its interactive configuration and
// derives everything else on demand: filtered view, summaries, pivots,
// geo points. Validation happens at the boundary of each mutating
// operation; committed state is assumed valid and derivations never
// re-validate.
//
// Derived views are pure functions of upstream state. The filtered view
// is memoized and invalidated on any mutation, so results always reflect
// the latest committed configuration.
//
// Every successful mutation is mirrored to the session store,
// fire-and-forget. The store may lag in-memory state by a beat; nothing
// here reads it back except Init.
// ============================================================================

// Dashboard is the analysis session controller.
type Dashboard struct {
	mu    sync.Mutex
	log   *slog.Logger
	store *session.Store // nil disables persistence

	dataset *engine.Dataset
	columns *engine.ColumnConfig
	filters []engine.Filter
	pivots  []engine.PivotConfig
	sorts   map[string]engine.PivotSort

	summaryColumn string

	filtered engine.RowView // memoized; nil means recompute
}

// New creates a controller. store may be nil to run without persistence.
func New(store *session.Store, log *slog.Logger) *Dashboard {
	if log == nil {
		log = slog.Default()
	}
	return &Dashboard{
		log:   log,
		store: store,
		sorts: make(map[string]engine.PivotSort),
	}
}

// Init restores a persisted session, if any. Runs before any ingestion
// so a reload lands back in the prior working state.
func (d *Dashboard) Init() error {
	if d.store == nil {
		return nil
	}
	state, err := d.store.Restore()
	if err != nil || state == nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.dataset = &engine.Dataset{
		SourceName: state.SourceName,
		Columns:    state.Columns,
		Rows:       state.Rows,
		Numeric:    state.Numeric,
		LatColumn:  state.LatColumn,
		LngColumn:  state.LngColumn,
		NameColumn: state.NameColumn,
		Children:   state.Children,
	}
	d.columns = engine.NewColumnConfig(state.Columns)
	if len(state.ActiveColumns) > 0 {
		if err := d.columns.SelectColumns(state.ActiveColumns); err != nil {
			d.log.Warn("restored active columns invalid, keeping all", "err", err)
		}
	}
	d.columns.SetRenames(state.Renames)
	d.filters = state.Filters
	d.pivots = state.Pivots
	d.sorts = state.PivotSorts
	if d.sorts == nil {
		d.sorts = make(map[string]engine.PivotSort)
	}
	d.summaryColumn = state.SummaryColumn
	d.filtered = nil

	d.log.Info("session restored",
		"source", state.SourceName, "rows", len(state.Rows), "pivots", len(state.Pivots))
	return nil
}

// ============================================================================
// INGESTION
// ============================================================================

// Ingest parses an uploaded file and replaces the working dataset
// wholesale. Filters and pivots are dataset-scoped and cleared; the
// column selection is pruned to the columns that survive into the new
// dataset, falling back to all columns when none do. A failed parse
// leaves prior state untouched.
func (d *Dashboard) Ingest(name string, data []byte) (*engine.Dataset, error) {
	ds, err := ingest.File(name, data)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.dataset = ds
	if d.columns == nil {
		d.columns = engine.NewColumnConfig(ds.Columns)
	} else {
		d.columns.Reset(ds.Columns)
	}
	d.filters = nil
	d.pivots = nil
	d.sorts = make(map[string]engine.PivotSort)
	d.summaryColumn = ""
	d.filtered = nil

	d.log.Info("dataset ingested",
		"source", ds.SourceName, "rows", len(ds.Rows), "columns", len(ds.Columns),
		"lat", ds.LatColumn, "lng", ds.LngColumn)

	d.persist()
	return ds, nil
}

// Dataset returns a snapshot of the active dataset, nil before
// ingestion. The struct is copied so readers never observe a geo-column
// mutation in flight; rows and columns are immutable after ingestion and
// safe to share.
func (d *Dashboard) Dataset() *engine.Dataset {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dataset == nil {
		return nil
	}
	ds := *d.dataset
	return &ds
}

// ============================================================================
// COLUMN CONFIGURATION
// ============================================================================

// ConfirmColumns commits the active-column selection and renames
// wholesale. An empty selection is rejected and prior state retained.
func (d *Dashboard) ConfirmColumns(active []string, renames map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dataset == nil {
		return rejectf(KindNoDataset, "")
	}
	if len(active) == 0 {
		return rejectf(KindNoColumnsSelected, "")
	}
	if err := d.columns.SelectColumns(active); err != nil {
		return rejectf(KindUnknownColumn, err.Error())
	}
	d.columns.SetRenames(renames)
	d.persist()
	return nil
}

// SetGeoColumns commits the coordinate column choice. Both columns are
// required and must exist.
func (d *Dashboard) SetGeoColumns(latCol, lngCol string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dataset == nil {
		return rejectf(KindNoDataset, "")
	}
	if latCol == "" || lngCol == "" {
		return rejectf(KindMissingLatLng, "")
	}
	if !d.dataset.HasColumn(latCol) {
		return rejectf(KindUnknownColumn, latCol)
	}
	if !d.dataset.HasColumn(lngCol) {
		return rejectf(KindUnknownColumn, lngCol)
	}
	d.dataset.LatColumn = latCol
	d.dataset.LngColumn = lngCol
	d.persist()
	return nil
}

// Columns returns the column configuration, nil before ingestion.
func (d *Dashboard) Columns() *engine.ColumnConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.columns
}

// ============================================================================
// FILTERS
// ============================================================================

// SetFilters replaces the filter list. Filter columns must exist and
// operators must be known; values may be blank (pending filters pass
// everything).
func (d *Dashboard) SetFilters(filters []engine.Filter) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dataset == nil {
		return rejectf(KindNoDataset, "")
	}
	for _, f := range filters {
		if !d.dataset.HasColumn(f.Column) {
			return rejectf(KindUnknownColumn, f.Column)
		}
		switch f.Op {
		case engine.FilterEquals, engine.FilterContains, engine.FilterStartsWith:
		default:
			return rejectf(KindInvalidFilterOp, string(f.Op))
		}
	}
	d.filters = append([]engine.Filter(nil), filters...)
	d.filtered = nil
	d.persist()
	return nil
}

// Filters returns the current filter list.
func (d *Dashboard) Filters() []engine.Filter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]engine.Filter(nil), d.filters...)
}

// FilteredRows returns the filtered view of the dataset, memoized until
// the next mutation.
func (d *Dashboard) FilteredRows() engine.RowView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filteredLocked()
}

func (d *Dashboard) filteredLocked() engine.RowView {
	if d.dataset == nil {
		return engine.NewSliceView(nil)
	}
	if d.filtered == nil {
		d.filtered = engine.ApplyFilters(d.dataset.View(), d.filters)
	}
	return d.filtered
}

// ============================================================================
// SUMMARY
// ============================================================================

// SetSummaryColumn selects the column for the frequency summary.
func (d *Dashboard) SetSummaryColumn(column string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dataset == nil {
		return rejectf(KindNoDataset, "")
	}
	if !d.dataset.HasColumn(column) {
		return rejectf(KindUnknownColumn, column)
	}
	d.summaryColumn = column
	d.persist()
	return nil
}

// Summary computes the frequency distribution for the selected column
// over the filtered rows.
func (d *Dashboard) Summary() ([]engine.SummaryEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dataset == nil {
		return nil, rejectf(KindNoDataset, "")
	}
	if d.summaryColumn == "" {
		return nil, rejectf(KindUnknownColumn, "summary column not set")
	}
	return engine.Summarize(d.filteredLocked(), d.summaryColumn), nil
}

// DrillDown returns the filtered rows behind one summary bucket.
func (d *Dashboard) DrillDown(value string) []engine.Row {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dataset == nil || d.summaryColumn == "" {
		return nil
	}
	return engine.RowsForValue(d.filteredLocked(), d.summaryColumn, value)
}

// ============================================================================
// PIVOTS
// ============================================================================

// AddPivot validates and registers a pivot definition, assigning its id.
// Aggregations other than count require a value field.
func (d *Dashboard) AddPivot(cfg engine.PivotConfig) (engine.PivotConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.validatePivotLocked(cfg); err != nil {
		return engine.PivotConfig{}, err
	}
	cfg.ID = uuid.NewString()
	d.pivots = append(d.pivots, cfg)
	d.persist()
	return cfg, nil
}

// UpdatePivot replaces an existing pivot definition in place.
func (d *Dashboard) UpdatePivot(cfg engine.PivotConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.validatePivotLocked(cfg); err != nil {
		return err
	}
	for i := range d.pivots {
		if d.pivots[i].ID == cfg.ID {
			d.pivots[i] = cfg
			d.persist()
			return nil
		}
	}
	return rejectf(KindUnknownPivot, cfg.ID)
}

// RemovePivot drops a pivot definition and its sort state.
func (d *Dashboard) RemovePivot(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.pivots {
		if d.pivots[i].ID == id {
			d.pivots = append(d.pivots[:i], d.pivots[i+1:]...)
			delete(d.sorts, id)
			d.persist()
			return nil
		}
	}
	return rejectf(KindUnknownPivot, id)
}

// Pivots returns all registered pivot definitions.
func (d *Dashboard) Pivots() []engine.PivotConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]engine.PivotConfig(nil), d.pivots...)
}

// Pivot recomputes one pivot over the current filtered rows and applies
// its stored sort. Pivots are views: they always reflect live filter and
// dataset changes, never a snapshot.
func (d *Dashboard) Pivot(id string) (*engine.PivotResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pivotLocked(id)
}

func (d *Dashboard) pivotLocked(id string) (*engine.PivotResult, error) {
	cfg, ok := d.findPivotLocked(id)
	if !ok {
		return nil, rejectf(KindUnknownPivot, id)
	}
	result := engine.ComputePivot(d.filteredLocked(), cfg)
	if result == nil {
		return nil, rejectf(KindMissingValueField, cfg.ID)
	}
	if s, ok := d.sorts[id]; ok {
		result.Sort(s)
	}
	return result, nil
}

// SortPivot applies the sort toggle convention to a pivot: re-selecting
// the current field flips direction, a new field starts descending.
func (d *Dashboard) SortPivot(id string, field engine.PivotSortField, column string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.findPivotLocked(id); !ok {
		return rejectf(KindUnknownPivot, id)
	}
	d.sorts[id] = engine.NextSort(d.sorts[id], field, column)
	d.persist()
	return nil
}

func (d *Dashboard) findPivotLocked(id string) (engine.PivotConfig, bool) {
	for _, p := range d.pivots {
		if p.ID == id {
			return p, true
		}
	}
	return engine.PivotConfig{}, false
}

func (d *Dashboard) validatePivotLocked(cfg engine.PivotConfig) error {
	if d.dataset == nil {
		return rejectf(KindNoDataset, "")
	}
	if cfg.RowField == "" || !d.dataset.HasColumn(cfg.RowField) {
		return rejectf(KindUnknownColumn, cfg.RowField)
	}
	if cfg.ColField != "" && !d.dataset.HasColumn(cfg.ColField) {
		return rejectf(KindUnknownColumn, cfg.ColField)
	}
	if cfg.Aggregation != engine.AggCount {
		if cfg.ValueField == "" {
			return rejectf(KindMissingValueField, string(cfg.Aggregation))
		}
		if !d.dataset.HasColumn(cfg.ValueField) {
			return rejectf(KindUnknownColumn, cfg.ValueField)
		}
	}
	return nil
}

// ============================================================================
// GEO
// ============================================================================

// GeoPoints projects the filtered rows onto validated coordinates,
// with the bounding box that frames the initial map view.
func (d *Dashboard) GeoPoints() ([]engine.GeoPoint, engine.BoundingBox, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dataset == nil {
		return nil, engine.BoundingBox{}, rejectf(KindNoDataset, "")
	}
	if d.dataset.LatColumn == "" || d.dataset.LngColumn == "" {
		return nil, engine.BoundingBox{}, rejectf(KindMissingLatLng, "")
	}
	points := engine.Project(d.filteredLocked(), d.dataset.LatColumn, d.dataset.LngColumn)
	box, _ := engine.Bounds(points)
	return points, box, nil
}

// RowBySeq finds a row in the current dataset by sequence id, together
// with its joined child rows. The map surface's "row clicked" event
// resolves through this.
func (d *Dashboard) RowBySeq(seq int) (engine.Row, []engine.Row, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dataset == nil {
		return engine.Row{}, nil, false
	}
	for _, row := range d.dataset.Rows {
		if row.Seq == seq {
			return row, d.dataset.ChildrenOf(seq), true
		}
	}
	return engine.Row{}, nil, false
}

// ============================================================================
// EXPORT
// ============================================================================

// ExportWorkbook builds the two-sheet workbook for one pivot.
func (d *Dashboard) ExportWorkbook(pivotID string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dataset == nil {
		return nil, rejectf(KindNoDataset, "")
	}
	cfg, ok := d.findPivotLocked(pivotID)
	if !ok {
		return nil, rejectf(KindUnknownPivot, pivotID)
	}
	result, err := d.pivotLocked(pivotID)
	if err != nil {
		return nil, err
	}
	f, err := export.Workbook(result, cfg, d.dataset, d.columns)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportCSV renders the filtered rows through the active-column view.
func (d *Dashboard) ExportCSV() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dataset == nil {
		return nil, rejectf(KindNoDataset, "")
	}
	return export.CSV(d.filteredLocked(), d.columns)
}

// ExportHTML renders the printable full-table view.
func (d *Dashboard) ExportHTML() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dataset == nil {
		return nil, rejectf(KindNoDataset, "")
	}
	return export.HTMLTable(d.dataset.SourceName, d.filteredLocked(), d.columns)
}

// ============================================================================
// RESET + PERSISTENCE
// ============================================================================

// Reset discards the dataset, all configuration, and the persisted
// bundle together.
func (d *Dashboard) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dataset = nil
	d.columns = nil
	d.filters = nil
	d.pivots = nil
	d.sorts = make(map[string]engine.PivotSort)
	d.summaryColumn = ""
	d.filtered = nil

	if d.store != nil {
		if err := d.store.Clear(); err != nil {
			return err
		}
	}
	d.log.Info("session reset")
	return nil
}

// persist mirrors current state to the session store. Callers hold mu.
func (d *Dashboard) persist() {
	if d.store == nil || d.dataset == nil {
		return
	}
	d.store.Save(&session.State{
		SourceName:    d.dataset.SourceName,
		Columns:       d.dataset.Columns,
		Rows:          d.dataset.Rows,
		Numeric:       d.dataset.Numeric,
		LatColumn:     d.dataset.LatColumn,
		LngColumn:     d.dataset.LngColumn,
		NameColumn:    d.dataset.NameColumn,
		Children:      d.dataset.Children,
		ActiveColumns: d.columns.Active(),
		Renames:       d.columns.Renames(),
		Filters:       d.filters,
		Pivots:        d.pivots,
		PivotSorts:    d.sorts,
		SummaryColumn: d.summaryColumn,
	})
}
