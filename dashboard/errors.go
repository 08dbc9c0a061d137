package dashboard

import (
	"errors"
	"fmt"
)

// ConfigKind classifies a rejected configuration action.
type ConfigKind string

const (
	KindNoDataset         ConfigKind = "no_dataset"
	KindNoColumnsSelected ConfigKind = "no_columns_selected"
	KindMissingLatLng     ConfigKind = "missing_lat_lng"
	KindMissingValueField ConfigKind = "missing_value_field"
	KindUnknownColumn     ConfigKind = "unknown_column"
	KindUnknownPivot      ConfigKind = "unknown_pivot"
	KindInvalidFilterOp   ConfigKind = "invalid_filter_op"
)

// ConfigError rejects a mutating action at its boundary. Prior state is
// always retained unchanged; the user corrects the input and re-attempts.
type ConfigError struct {
	Kind  ConfigKind
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration rejected: %s (%s)", e.Kind, e.Field)
	}
	return fmt.Sprintf("configuration rejected: %s", e.Kind)
}

// IsConfigKind reports whether err is a ConfigError of the given kind.
func IsConfigKind(err error, kind ConfigKind) bool {
	var ce *ConfigError
	return errors.As(err, &ce) && ce.Kind == kind
}

func rejectf(kind ConfigKind, field string) error {
	return &ConfigError{Kind: kind, Field: field}
}
