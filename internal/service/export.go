package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"canvass-data/internal/domain"
	"canvass-data/internal/repository"

	"github.com/xuri/excelize/v2"
)

// Export column headers are localized; downstream staff work with these
// spreadsheets directly.
var contactsExportHeader = []string{
	"ID агента",
	"ID чата",
	"Логин (@)",
	"Имя агента",
	"ФИО избирателя",
	"Телефон",
	"Повторность",
	"Статус общения",
	"Способ передачи флаера",
	"Номер флаера",
	"Голосование на дому",
	"Создано",
}

var summaryExportHeader = []string{
	"Логин (@)",
	"Имя",
	"Период",
	"Всего",
	"Согласие",
	"Отказ",
	"Никого нет",
	"Флаер — на руки",
	"Флаер — в ящик",
	"Флаер — не выдавали",
	"Голосование на дому (Да)",
}

func mapRepeat(v *domain.RepeatTouch) string {
	if v == nil {
		return ""
	}
	switch *v {
	case domain.RepeatPrimary:
		return "Первичное"
	case domain.RepeatSecondary:
		return "Повторное"
	}
	return string(*v)
}

func mapStatus(v *domain.TalkStatus) string {
	if v == nil {
		return ""
	}
	switch *v {
	case domain.TalkConsent:
		return "Согласие"
	case domain.TalkRefusal:
		return "Отказ"
	case domain.TalkNoOne:
		return "Никого нет"
	}
	return string(*v)
}

func mapMethod(v *domain.FlyerMethod) string {
	if v == nil {
		return ""
	}
	switch *v {
	case domain.FlyerHand:
		return "На руки"
	case domain.FlyerMailbox:
		return "В ящик"
	case domain.FlyerNone:
		return "Не выдавали"
	}
	return string(*v)
}

func mapHomeVoting(v *bool) string {
	if v != nil && *v {
		return "Да"
	}
	return "Нет"
}

func contactCells(row repository.ContactWithAgent) []any {
	c := row.Contact
	var agentID string
	var chatID any
	var username, name string
	if row.Agent != nil {
		agentID = row.Agent.AgentID
		chatID = row.Agent.ChatID
		if row.Agent.Username != "" {
			username = "@" + row.Agent.Username
		}
		name = row.Agent.Name
	} else {
		agentID = c.AgentID
		chatID = ""
	}
	return []any{
		agentID,
		chatID,
		username,
		name,
		c.FullName,
		c.PhoneE164,
		mapRepeat(c.RepeatTouch),
		mapStatus(c.TalkStatus),
		mapMethod(c.FlyerMethod),
		c.FlyerNumber,
		mapHomeVoting(c.HomeVoting),
		c.CreatedAt.Truncate(time.Second).Format("2006-01-02 15:04:05"),
	}
}

func summaryCells(st *AgentPeriodStats, periodTitle string) []any {
	return []any{
		st.Username,
		st.Name,
		periodTitle,
		st.Total,
		st.Consent,
		st.Refusal,
		st.NoOne,
		st.Hand,
		st.Mailbox,
		st.None,
		st.HomeYes,
	}
}

// RenderContactsXLSX builds the full export workbook: a "Данные" sheet with
// one row per contact and a "Сводка" sheet with per-agent counters.
func RenderContactsXLSX(rows []repository.ContactWithAgent, stats []*AgentPeriodStats, periodTitle string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	dataSheet := "Данные"
	index, err := f.NewSheet(dataSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := headerCellStyle(f)
	if err != nil {
		return nil, err
	}

	widths := []float64{38, 14, 16, 24, 32, 16, 14, 16, 22, 14, 20, 20}
	if err := writeSheet(f, dataSheet, contactsExportHeader, widths, headerStyle, func(yield func([]any)) {
		for _, row := range rows {
			yield(contactCells(row))
		}
	}); err != nil {
		return nil, err
	}

	summarySheet := "Сводка"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	summaryWidths := []float64{16, 24, 14, 10, 10, 10, 12, 16, 16, 20, 22}
	if err := writeSheet(f, summarySheet, summaryExportHeader, summaryWidths, headerStyle, func(yield func([]any)) {
		for _, st := range stats {
			yield(summaryCells(st, periodTitle))
		}
	}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderSummaryXLSX builds a summary-only workbook (personal and brigade
// exports).
func RenderSummaryXLSX(stats []*AgentPeriodStats, periodTitle string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Сводка"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := headerCellStyle(f)
	if err != nil {
		return nil, err
	}
	widths := []float64{16, 24, 14, 10, 10, 10, 12, 16, 16, 20, 22}
	if err := writeSheet(f, sheet, summaryExportHeader, widths, headerStyle, func(yield func([]any)) {
		for _, st := range stats {
			yield(summaryCells(st, periodTitle))
		}
	}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderContactsCSV is the flat variant of the data sheet.
func RenderContactsCSV(rows []repository.ContactWithAgent) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(contactsExportHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := make([]string, 0, len(contactsExportHeader))
		for _, cell := range contactCells(row) {
			switch v := cell.(type) {
			case string:
				record = append(record, v)
			case int64:
				record = append(record, strconv.FormatInt(v, 10))
			case int:
				record = append(record, strconv.Itoa(v))
			default:
				record = append(record, fmt.Sprint(v))
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func headerCellStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	return style, nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, widths []float64, headerStyle int, iterate func(yield func([]any))) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	for col, width := range widths {
		if col >= len(headers) {
			break
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to name column: %w", err)
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	rowIdx := 2
	var writeErr error
	iterate(func(cells []any) {
		if writeErr != nil {
			return
		}
		for col, val := range cells {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
			if err != nil {
				writeErr = err
				return
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				writeErr = err
				return
			}
		}
		rowIdx++
	})
	return writeErr
}
