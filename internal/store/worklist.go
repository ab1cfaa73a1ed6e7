package store

import (
	"strings"

	"github.com/sells-group/skiptrace-cli/internal/model"
)

// Column suffixes per field group. Reads use the cleaned name, the
// address, and the type discriminator; writes fill the result columns.
const (
	suffixName    = "_Cleaned"
	suffixAddress = "_Address"
	suffixType    = "_Type"

	suffixPhonePrimary   = "_Phone_Primary"
	suffixPhoneSecondary = "_Phone_Secondary"
	suffixPhoneAll       = "_Phone_All"
	suffixAddressMatch   = "_Address_Match"
	suffixStatus         = "_Status"
)

// BuildWorkList scans the table once and returns the work items still
// needing lookup, in row order, field groups in declaration order within
// a row. A group with a non-empty primary phone is skipped, which is what
// makes re-running against a partially completed store resume instead of
// redo: a prior Success is never overwritten. Only rows whose type
// discriminator is "person" for the group are eligible. maxRecords > 0
// caps the list.
func BuildWorkList(t *Table, maxRecords int) []model.WorkItem {
	var items []model.WorkItem

	for row := range t.Rows {
		for _, group := range model.FieldGroups {
			g := string(group)

			if !strings.EqualFold(t.Get(row, g+suffixType), "person") {
				continue
			}

			name := t.Get(row, g+suffixName)
			address := t.Get(row, g+suffixAddress)
			if name == "" || address == "" {
				continue
			}

			// Resume: already traced on a previous run.
			if t.Get(row, g+suffixPhonePrimary) != "" {
				continue
			}

			items = append(items, model.WorkItem{
				RecordID:      row,
				SubjectName:   name,
				TargetAddress: address,
				Group:         group,
			})
			if maxRecords > 0 && len(items) >= maxRecords {
				return items
			}
		}
	}

	return items
}

// EnsureResultColumns adds the write-back columns for every field group
// so checkpoints have a stable schema from the first save.
func EnsureResultColumns(t *Table) {
	for _, group := range model.FieldGroups {
		g := string(group)
		for _, suffix := range []string{
			suffixPhonePrimary,
			suffixPhoneSecondary,
			suffixPhoneAll,
			suffixAddressMatch,
			suffixStatus,
		} {
			t.EnsureColumn(g + suffix)
		}
	}
}

// ApplyResult writes a lookup outcome into the item's row. Phones are
// only written on success; a failure records just the status string.
func ApplyResult(t *Table, item model.WorkItem, res *model.LookupResult) {
	g := string(item.Group)

	if res.Status == model.StatusSuccess {
		t.Set(item.RecordID, g+suffixPhonePrimary, res.PrimaryPhone())
		t.Set(item.RecordID, g+suffixPhoneSecondary, res.SecondaryPhone())
		t.Set(item.RecordID, g+suffixPhoneAll, strings.Join(res.Phones, ", "))
		t.Set(item.RecordID, g+suffixAddressMatch, res.MatchedAddress)
	}
	t.Set(item.RecordID, g+suffixStatus, res.StoreStatus())
}
