package engine

import "fmt"

// ============================================================================
// COLUMN CONFIGURATION — Active Subset + Display Renames
// ============================================================================
// Renaming never changes identity: filters, summaries, and pivots address
// rows by original column name. Renames resolve only at presentation
// time, through Label.
// ============================================================================

// ColumnConfig holds the column universe, the user-selected active
// subset, and optional display renames.
type ColumnConfig struct {
	columns []string
	active  []string
	renames map[string]string
}

// NewColumnConfig starts with every discovered column active and no
// renames.
func NewColumnConfig(columns []string) *ColumnConfig {
	c := &ColumnConfig{renames: make(map[string]string)}
	c.columns = append(c.columns, columns...)
	c.active = append(c.active, columns...)
	return c
}

// Columns returns the full discovered column set in ingestion order.
func (c *ColumnConfig) Columns() []string {
	return append([]string(nil), c.columns...)
}

// Active returns the current active subset.
func (c *ColumnConfig) Active() []string {
	return append([]string(nil), c.active...)
}

// SelectColumns replaces the active subset wholesale — a configuration
// commit, not an incremental toggle. Order is taken as given, so the
// caller may reorder. Unknown columns are rejected with no state change.
func (c *ColumnConfig) SelectColumns(columns []string) error {
	known := make(map[string]bool, len(c.columns))
	for _, col := range c.columns {
		known[col] = true
	}
	for _, col := range columns {
		if !known[col] {
			return fmt.Errorf("unknown column %q", col)
		}
	}
	c.active = append([]string(nil), columns...)
	return nil
}

// Rename sets a display label for a column. An empty label removes the
// rename.
func (c *ColumnConfig) Rename(column, label string) {
	if label == "" {
		delete(c.renames, column)
		return
	}
	c.renames[column] = label
}

// Label resolves a column's display label, falling back to the original
// name.
func (c *ColumnConfig) Label(column string) string {
	if label, ok := c.renames[column]; ok {
		return label
	}
	return column
}

// Renames returns a copy of the rename map.
func (c *ColumnConfig) Renames() map[string]string {
	out := make(map[string]string, len(c.renames))
	for k, v := range c.renames {
		out[k] = v
	}
	return out
}

// SetRenames replaces the rename map wholesale, dropping empty labels.
func (c *ColumnConfig) SetRenames(renames map[string]string) {
	c.renames = make(map[string]string, len(renames))
	for col, label := range renames {
		if label != "" {
			c.renames[col] = label
		}
	}
}

// Reset swaps in a new column universe (re-ingestion) and prunes stale
// active entries and renames that no longer exist.
func (c *ColumnConfig) Reset(columns []string) {
	known := make(map[string]bool, len(columns))
	c.columns = append([]string(nil), columns...)
	for _, col := range columns {
		known[col] = true
	}

	kept := c.active[:0]
	for _, col := range c.active {
		if known[col] {
			kept = append(kept, col)
		}
	}
	c.active = kept
	if len(c.active) == 0 {
		c.active = append([]string(nil), columns...)
	}

	for col := range c.renames {
		if !known[col] {
			delete(c.renames, col)
		}
	}
}
