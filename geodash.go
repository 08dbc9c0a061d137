// Package geodash provides the tabular analysis core behind the CENVI
// data dashboard: spreadsheet ingestion, column configuration, filtering,
// frequency summaries, pivot aggregation, geospatial point projection, and
// session persistence.
//
// Usage:
//
//	import "github.com/cenvi-org/geodash/ingest"
//	import "github.com/cenvi-org/geodash/engine"
//
//	ds, err := ingest.File("survey.csv", data)
//	view := ds.View()
//	filtered := engine.ApplyFilters(view, filters)
//	pivot := engine.ComputePivot(filtered, cfg)
//	points := engine.Project(filtered, ds.LatColumn, ds.LngColumn)
//
// The engine never renders anything — map tiles, charts, and tables are
// external surfaces that consume its output as read-only data. All
// computation is local and synchronous.
package geodash
