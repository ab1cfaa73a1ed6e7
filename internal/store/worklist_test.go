package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/skiptrace-cli/internal/model"
)

func personTable() *Table {
	header := []string{
		"DirectName_Cleaned", "DirectName_Address", "DirectName_Type",
		"IndirectName_Cleaned", "IndirectName_Address", "IndirectName_Type",
	}
	rows := [][]string{
		{"SMITH, JOHN", "123 NW 5th Ave", "Person", "DOE, JANE", "44 Palm Ct", "Person"},
		{"ACME HOLDINGS LLC", "500 Corporate Blvd", "Business", "BROWN, BOB", "9 Oak St", "Person"},
		{"WHITE, ANN", "", "Person", "", "77 Bay Dr", "Person"},
	}
	return NewTable(header, rows)
}

func TestBuildWorkList_ScansGroupsInOrder(t *testing.T) {
	items := BuildWorkList(personTable(), 0)
	require.Len(t, items, 3)

	assert.Equal(t, model.WorkItem{RecordID: 0, SubjectName: "SMITH, JOHN", TargetAddress: "123 NW 5th Ave", Group: model.GroupDirect}, items[0])
	assert.Equal(t, model.WorkItem{RecordID: 0, SubjectName: "DOE, JANE", TargetAddress: "44 Palm Ct", Group: model.GroupIndirect}, items[1])
	// Row 1 direct group is a business; row 2 has blanks on both groups.
	assert.Equal(t, model.WorkItem{RecordID: 1, SubjectName: "BROWN, BOB", TargetAddress: "9 Oak St", Group: model.GroupIndirect}, items[2])
}

func TestBuildWorkList_MaxRecords(t *testing.T) {
	items := BuildWorkList(personTable(), 2)
	assert.Len(t, items, 2)
}

func TestBuildWorkList_ResumeSkipsTracedGroups(t *testing.T) {
	tbl := personTable()
	tbl.Set(0, "DirectName_Phone_Primary", "(954) 555-0001")

	items := BuildWorkList(tbl, 0)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.False(t, item.RecordID == 0 && item.Group == model.GroupDirect,
			"already-traced group must be excluded")
	}
}

func TestEnsureResultColumns(t *testing.T) {
	tbl := personTable()
	EnsureResultColumns(tbl)

	for _, col := range []string{
		"DirectName_Phone_Primary", "DirectName_Phone_Secondary", "DirectName_Phone_All",
		"DirectName_Address_Match", "DirectName_Status",
		"IndirectName_Phone_Primary", "IndirectName_Status",
	} {
		_, ok := tbl.Col(col)
		assert.True(t, ok, "missing column %s", col)
	}
}

func TestApplyResult_Success(t *testing.T) {
	tbl := personTable()
	item := model.WorkItem{RecordID: 0, Group: model.GroupDirect}
	res := &model.LookupResult{
		Status:         model.StatusSuccess,
		Phones:         []string{"(954) 555-0001", "(954) 555-0002", "(305) 555-0003"},
		MatchedAddress: "123 NW 5TH AVE",
	}

	ApplyResult(tbl, item, res)

	assert.Equal(t, "(954) 555-0001", tbl.Get(0, "DirectName_Phone_Primary"))
	assert.Equal(t, "(954) 555-0002", tbl.Get(0, "DirectName_Phone_Secondary"))
	assert.Equal(t, "(954) 555-0001, (954) 555-0002, (305) 555-0003", tbl.Get(0, "DirectName_Phone_All"))
	assert.Equal(t, "123 NW 5TH AVE", tbl.Get(0, "DirectName_Address_Match"))
	assert.Equal(t, "Success", tbl.Get(0, "DirectName_Status"))
}

func TestApplyResult_FailureWritesOnlyStatus(t *testing.T) {
	tbl := personTable()
	item := model.WorkItem{RecordID: 1, Group: model.GroupIndirect}

	ApplyResult(tbl, item, &model.LookupResult{Status: model.StatusNoResults})

	assert.Equal(t, "", tbl.Get(1, "IndirectName_Phone_Primary"))
	assert.Equal(t, "Failed: No phones found", tbl.Get(1, "IndirectName_Status"))
}

func TestApplyResult_ThenResumeExcludesGroup(t *testing.T) {
	tbl := personTable()
	item := model.WorkItem{RecordID: 0, SubjectName: "SMITH, JOHN", TargetAddress: "123 NW 5th Ave", Group: model.GroupDirect}
	ApplyResult(tbl, item, &model.LookupResult{
		Status: model.StatusSuccess,
		Phones: []string{"(954) 555-0001"},
	})

	items := BuildWorkList(tbl, 0)
	for _, got := range items {
		assert.False(t, got.RecordID == 0 && got.Group == model.GroupDirect)
	}
	// Failures stay in the work list for the next run.
	assert.Len(t, items, 2)
}
