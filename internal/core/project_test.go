package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProjectValidate(t *testing.T) {
	tests := []struct {
		name    string
		project Project
		wantErr error
	}{
		{name: "valid", project: Project{Name: "江南大道亮化工程", Code: "A-1"}},
		{name: "blank name", project: Project{Name: "   "}, wantErr: ErrEmptyName},
		{name: "long name", project: Project{Name: strings.Repeat("工", 201)}, wantErr: ErrNameTooLong},
		{name: "long code", project: Project{Name: "x", Code: strings.Repeat("a", 101)}, wantErr: ErrCodeTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.project.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "合同", NormalizeCategory("合同"))
	assert.Equal(t, "合同", NormalizeCategory(" 合同 "))
	assert.Equal(t, DefaultCategory, NormalizeCategory("不存在"))
	assert.Equal(t, DefaultCategory, NormalizeCategory(""))
	assert.Len(t, FileCategories, 21)
	assert.Equal(t, DefaultCategory, FileCategories[len(FileCategories)-1])
}

func TestDefaultReportData(t *testing.T) {
	now := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)

	d := DefaultReportData("亮化工程", "", now)
	assert.Equal(t, "亮化工程", d["project_name"])
	assert.Equal(t, DefaultReportCode, d["report_code"])
	assert.Equal(t, "2026年01月04日", d["report_date"])
	assert.Len(t, AdjustmentsFromData(d["adjustments"]), 2)

	d = DefaultReportData("亮化工程", "杭滨咨(2026)结审第007号", now)
	assert.Equal(t, "杭滨咨(2026)结审第007号", d["report_code"])
}

func TestReportDataClone(t *testing.T) {
	d := ReportData{"a": "1"}
	c := d.Clone()
	c["a"] = "2"
	assert.Equal(t, "1", d["a"])
}
