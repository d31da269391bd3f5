package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultCategory is the category assigned to uploads with an unknown category.
const DefaultCategory = "其他"

// DefaultReportCode is used for new projects created without a code.
const DefaultReportCode = "杭滨咨(2026)结审第001号"

// ReportDateLayout formats dates the way report documents print them.
const ReportDateLayout = "2006年01月02日"

// FileCategories is the fixed list of folders uploaded documents are filed under.
var FileCategories = []string{
	"变更联系单",
	"工程结算书",
	"工期签证",
	"合同",
	"简复单",
	"进度款支付证明",
	"竣工报告",
	"竣工验收证书",
	"开工报告",
	"全套纸质扫描",
	"施工记录",
	"施工组织设计",
	"投标文件",
	"图纸会审纪要",
	"图纸交底",
	"无价材料",
	"隐蔽工程检查记录",
	"预算审核报告",
	"招标文件",
	"中标通知书",
	DefaultCategory,
}

var (
	ErrEmptyName     = errors.New("empty project name")
	ErrNameTooLong   = errors.New("project name too long (max 200 characters)")
	ErrCodeTooLong   = errors.New("project code too long (max 100 characters)")
	ErrEmptyFilename = errors.New("empty file name")
)

type (
	// ReportData is the free-form form payload stored with a project and fed
	// to the report template.
	ReportData map[string]any

	Project struct {
		ID        int64
		Name      string
		Code      string
		CreatedAt time.Time
		UpdatedAt time.Time
		Data      ReportData
	}

	ProjectFile struct {
		ID         int64
		ProjectID  int64
		Filename   string // original name, for display
		Path       string // where the upload is stored
		FileType   string
		Category   string
		UploadedAt time.Time
	}
)

func (p Project) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > 200 {
		return ErrNameTooLong
	}
	if utf8.RuneCountInString(p.Code) > 100 {
		return ErrCodeTooLong
	}
	return nil
}

func (f ProjectFile) Validate() error {
	if strings.TrimSpace(f.Filename) == "" {
		return ErrEmptyFilename
	}
	return nil
}

// IsFileCategory reports whether c is one of FileCategories.
func IsFileCategory(c string) bool {
	for _, fc := range FileCategories {
		if fc == c {
			return true
		}
	}
	return false
}

// NormalizeCategory returns c if it is a known category and DefaultCategory otherwise.
func NormalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if IsFileCategory(c) {
		return c
	}
	return DefaultCategory
}

// Clone returns a shallow copy of d. Nested values are shared.
func (d ReportData) Clone() ReportData {
	out := make(ReportData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// DefaultReportData returns the payload a new project starts with, pre-filled
// with sample values so the first preview renders a complete document.
func DefaultReportData(name, code string, now time.Time) ReportData {
	if strings.TrimSpace(code) == "" {
		code = DefaultReportCode
	}
	today := now.Format(ReportDateLayout)
	return ReportData{
		"project_name":          name,
		"report_code":           code,
		"report_date":           today,
		"client_name":           "杭州市滨江区城市建设投资集团有限公司",
		"project_description":   "本工程主要包括江南大道（西兴路-火炬大道）及周边楼宇的亮化设计与施工，涉及灯具安装 1200 套，控制系统升级等内容。",
		"builder_name":          "杭州市滨江区城市建设投资集团有限公司",
		"designer_name":         "中国联合工程有限公司",
		"contractor_name":       "浙江省一建建设集团有限公司",
		"supervisor_name":       "杭州市建设工程监理有限公司",
		"agent_name":            "杭州市滨江区代建中心",
		"duration_days":         365,
		"start_date":            "2024年05月01日",
		"end_date":              "2025年05月01日",
		"contract_amount":       1500.00,
		"submit_amount_wan":     1550.00,
		"audit_amount":          14800000.00,
		"final_approved_amount": 14750000.00,
		"reduction_amount":      758000.00,
		"bidding_method":        "公开招标",
		"bidding_price_control": 15000000.00,
		"bidding_price_winning": 14800000.00,
		"quality_status":        "经审核，",
		"audit_fee_deduction":   0.00,
		"audit_period_start":    today,
		"audit_period_end":      today,
		"adjustments": []any{
			map[string]any{"content": "C30混凝土工程量按实调减", "amount": 12.50},
			map[string]any{"content": "亮化灯具品牌更换核减差价", "amount": 8.30},
		},
	}
}
