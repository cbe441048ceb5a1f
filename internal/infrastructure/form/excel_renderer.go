package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// SheetName is the worksheet holding the form summary
const SheetName = "Form 1040"

// ErrNilResult is returned when there is nothing to render
var ErrNilResult = errors.New("tax result is required")

// line is one labelled row of the summary; cells follow the 1040 line numbers
type line struct {
	cell  string
	label string
	value func(info entity.PersonalInfo, r *entity.TaxResult) interface{}
}

var lines = []line{
	{"4", "Filing status", func(i entity.PersonalInfo, _ *entity.TaxResult) interface{} { return statusLabel(i.FilingStatus) }},
	{"5", "Qualifying children", func(i entity.PersonalInfo, _ *entity.TaxResult) interface{} { return i.DependentChildren }},
	{"6", "Other dependents", func(i entity.PersonalInfo, _ *entity.TaxResult) interface{} { return i.OtherDependents }},
	{"8", "1a Wages (W-2 box 1)", func(_ entity.PersonalInfo, r *entity.TaxResult) interface{} { return r.Breakdown.Wages }},
	{"9", "2b Taxable interest (1099-INT)", func(_ entity.PersonalInfo, r *entity.TaxResult) interface{} { return r.Breakdown.InterestIncome }},
	{"10", "8 Nonemployee compensation (1099-NEC)", func(_ entity.PersonalInfo, r *entity.TaxResult) interface{} { return r.Breakdown.NECIncome }},
	{"11", "9 Total income", func(_ entity.PersonalInfo, r *entity.TaxResult) interface{} { return r.TotalIncome }},
	{"12", "12 Standard deduction", func(_ entity.PersonalInfo, r *entity.TaxResult) interface{} { return r.StandardDeduction }},
	{"13", "15 Taxable income", func(_ entity.PersonalInfo, r *entity.TaxResult) interface{} { return r.TaxableIncome }},
	{"14", "19 Child and other dependent credits", func(_ entity.PersonalInfo, r *entity.TaxResult) interface{} { return r.CreditsApplied }},
	{"15", "23 Self-employment tax", func(_ entity.PersonalInfo, r *entity.TaxResult) interface{} { return r.SelfEmploymentTax }},
	{"16", "24 Total tax", func(_ entity.PersonalInfo, r *entity.TaxResult) interface{} { return r.TaxOwed }},
	{"17", "25d Federal income tax withheld", func(_ entity.PersonalInfo, r *entity.TaxResult) interface{} { return r.FederalWithheld }},
	{"19", "", func(_ entity.PersonalInfo, r *entity.TaxResult) interface{} { return r.RefundOrDue }},
}

// ExcelRenderer implements port.FormRenderer by filling a workbook
type ExcelRenderer struct {
	templatePath string
	logger       *zap.Logger
}

// NewExcelRenderer creates a renderer. An empty templatePath builds the sheet from scratch.
func NewExcelRenderer(templatePath string, logger *zap.Logger) *ExcelRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExcelRenderer{templatePath: templatePath, logger: logger}
}

// Render returns the xlsx bytes of the filled form
func (r *ExcelRenderer) Render(ctx context.Context, info entity.PersonalInfo, result *entity.TaxResult) ([]byte, error) {
	if result == nil {
		return nil, ErrNilResult
	}

	f, sheet, err := r.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	r.setCell(f, sheet, "A1", "Form 1040 Summary")
	r.setCell(f, sheet, "A2", "U.S. Individual Income Tax Return, tax year 2024")

	for _, l := range lines {
		label := l.label
		if label == "" {
			label = refundLabel(result)
		}
		r.setCell(f, sheet, "A"+l.cell, label)

		v := l.value(info, result)
		if _, ok := v.(float64); ok {
			if l.cell == "19" {
				v = abs(v.(float64))
			}
			if err := f.SetCellStyle(sheet, "B"+l.cell, "B"+l.cell, moneyStyle); err != nil {
				r.logger.Warn("Failed to set cell style", zap.String("cell", "B"+l.cell), zap.Error(err))
			}
		}
		r.setCell(f, sheet, "B"+l.cell, v)
	}

	if err := f.SetColWidth(sheet, "A", "A", 42); err != nil {
		r.logger.Warn("Failed to set column width", zap.Error(err))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	r.logger.Info("Form rendered",
		zap.String("filing_status", string(info.FilingStatus)),
		zap.Float64("tax_owed", result.TaxOwed),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// open loads the template or creates a workbook with the summary sheet
func (r *ExcelRenderer) open() (*excelize.File, string, error) {
	if r.templatePath != "" {
		f, err := excelize.OpenFile(r.templatePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open template: %w", err)
		}
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, "", fmt.Errorf("template has no sheets")
		}
		return f, sheets[0], nil
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, "", fmt.Errorf("failed to name sheet: %w", err)
	}
	return f, SheetName, nil
}

func (r *ExcelRenderer) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		r.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func refundLabel(result *entity.TaxResult) string {
	if result.IsRefund() {
		return "34 Refund"
	}
	return "37 Amount you owe"
}

func statusLabel(s entity.FilingStatus) string {
	switch s {
	case entity.FilingStatusSingle:
		return "Single"
	case entity.FilingStatusMarriedJoint:
		return "Married filing jointly"
	case entity.FilingStatusMarriedSeparate:
		return "Married filing separately"
	case entity.FilingStatusHeadOfHousehold:
		return "Head of household"
	case entity.FilingStatusWidow:
		return "Qualifying surviving spouse"
	default:
		return string(s)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

var _ port.FormRenderer = (*ExcelRenderer)(nil)
