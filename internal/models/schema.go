package models

import "sort"

// Two ticket schemas exist in the wild: the multi-day/category model uses
// code_6_digit + status, the older single-day model uses six_digit_code +
// ticket_status. Neither is assumed; ReconcileTicketColumns reports what a
// live table actually carries.
const (
	ColumnCode         = "code_6_digit"
	ColumnLegacyCode   = "six_digit_code"
	ColumnStatus       = "status"
	ColumnLegacyStatus = "ticket_status"
)

// SchemaReport describes which ticket column naming a database uses.
type SchemaReport struct {
	CodeColumns   []string `json:"code_columns"`
	StatusColumns []string `json:"status_columns"`
	// Conflicts lists concerns where both namings are present.
	Conflicts []string `json:"conflicts,omitempty"`
	// Missing lists concerns where neither naming is present.
	Missing []string `json:"missing,omitempty"`
}

// Consistent reports whether the table uses exactly one naming per concern.
func (r SchemaReport) Consistent() bool {
	return len(r.Conflicts) == 0 && len(r.Missing) == 0
}

// Canonical reports whether the table matches the naming this code reads.
func (r SchemaReport) Canonical() bool {
	return r.Consistent() &&
		r.CodeColumns[0] == ColumnCode &&
		r.StatusColumns[0] == ColumnStatus
}

// ReconcileTicketColumns inspects the column names of the tickets table.
func ReconcileTicketColumns(columns []string) SchemaReport {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	var r SchemaReport
	for _, c := range []string{ColumnCode, ColumnLegacyCode} {
		if have[c] {
			r.CodeColumns = append(r.CodeColumns, c)
		}
	}
	for _, c := range []string{ColumnStatus, ColumnLegacyStatus} {
		if have[c] {
			r.StatusColumns = append(r.StatusColumns, c)
		}
	}
	check := func(concern string, found []string) {
		switch len(found) {
		case 0:
			r.Missing = append(r.Missing, concern)
		case 1:
		default:
			r.Conflicts = append(r.Conflicts, concern)
		}
	}
	check("code", r.CodeColumns)
	check("status", r.StatusColumns)
	sort.Strings(r.Conflicts)
	sort.Strings(r.Missing)
	return r
}
