package form

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

func sampleResult() *entity.TaxResult {
	return &entity.TaxResult{
		TotalIncome:       50000,
		TaxOwed:           4016,
		FederalWithheld:   5000,
		RefundOrDue:       984,
		Breakdown:         entity.IncomeBreakdown{Wages: 50000},
		StandardDeduction: 14600,
		TaxableIncome:     35400,
	}
}

func TestExcelRenderer_Render(t *testing.T) {
	r := NewExcelRenderer("", nil)
	info := entity.PersonalInfo{FilingStatus: entity.FilingStatusSingle, DependentChildren: 1}

	data, err := r.Render(context.Background(), info, sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	cell := func(axis string) string {
		v, err := f.GetCellValue(SheetName, axis)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Form 1040 Summary", cell("A1"))
	assert.Equal(t, "Single", cell("B4"))
	assert.Equal(t, "1", cell("B5"))
	assert.Equal(t, "34 Refund", cell("A19"))

	raw, err := f.GetCellValue(SheetName, "B16", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "4016", raw)
}

func TestExcelRenderer_AmountOwed(t *testing.T) {
	result := sampleResult()
	result.RefundOrDue = -250.5

	data, err := NewExcelRenderer("", nil).Render(context.Background(),
		entity.PersonalInfo{FilingStatus: entity.FilingStatusMarriedJoint}, result)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	label, _ := f.GetCellValue(SheetName, "A19")
	assert.Equal(t, "37 Amount you owe", label)
	raw, _ := f.GetCellValue(SheetName, "B19", excelize.Options{RawCellValue: true})
	assert.Equal(t, "250.5", raw)
}

func TestExcelRenderer_Template(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.xlsx")
	tmpl := excelize.NewFile()
	require.NoError(t, tmpl.SetSheetName("Sheet1", "Return"))
	require.NoError(t, tmpl.SetCellValue("Return", "D1", "prefilled"))
	require.NoError(t, tmpl.SaveAs(path))
	require.NoError(t, tmpl.Close())

	data, err := NewExcelRenderer(path, nil).Render(context.Background(),
		entity.PersonalInfo{FilingStatus: entity.FilingStatusSingle}, sampleResult())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	v, _ := f.GetCellValue("Return", "D1")
	assert.Equal(t, "prefilled", v)
	v, _ = f.GetCellValue("Return", "B4")
	assert.Equal(t, "Single", v)
}

func TestExcelRenderer_Errors(t *testing.T) {
	_, err := NewExcelRenderer("", nil).Render(context.Background(), entity.PersonalInfo{}, nil)
	assert.ErrorIs(t, err, ErrNilResult)

	_, err = NewExcelRenderer(filepath.Join(t.TempDir(), "missing.xlsx"), nil).Render(
		context.Background(), entity.PersonalInfo{}, sampleResult())
	assert.Error(t, err)
}
