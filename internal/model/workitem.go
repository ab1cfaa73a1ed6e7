// Package model defines the shared domain types for the skip-trace pipeline.
package model

// FieldGroup identifies which name/address pair on a record a work item
// refers to. A single record can carry two traceable parties.
type FieldGroup string

const (
	// GroupDirect is the filing party on a record.
	GroupDirect FieldGroup = "DirectName"
	// GroupIndirect is the responding party on a record.
	GroupIndirect FieldGroup = "IndirectName"
)

// FieldGroups lists the groups scanned on every record, in scan order.
var FieldGroups = []FieldGroup{GroupDirect, GroupIndirect}

// WorkItem is one (subject name, target address) pair extracted from a
// record that still needs a phone lookup. Immutable after creation.
type WorkItem struct {
	RecordID      int        `json:"record_id"` // row index in the record store
	SubjectName   string     `json:"subject_name"`
	TargetAddress string     `json:"target_address"`
	Group         FieldGroup `json:"field_group"`
}
