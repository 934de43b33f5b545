package service

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"canvass-data/internal/domain"
	"canvass-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleExportRows() []repository.ContactWithAgent {
	touch := domain.RepeatPrimary
	status := domain.TalkConsent
	method := domain.FlyerHand
	home := true
	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return []repository.ContactWithAgent{
		{
			Contact: &domain.Contact{
				ContactID:   "c1",
				AgentID:     "a1",
				FullName:    "Петров Сидор Иванович",
				PhoneE164:   "+79991234567",
				RepeatTouch: &touch,
				TalkStatus:  &status,
				FlyerMethod: &method,
				FlyerNumber: "42",
				HomeVoting:  &home,
				CreatedAt:   created,
			},
			Agent: &domain.Agent{
				AgentID:  "a1",
				ChatID:   100,
				Name:     "Тест Агент",
				Username: "test_agent",
			},
		},
		{
			// Orphaned contact: the agent row is gone.
			Contact: &domain.Contact{
				ContactID: "c2",
				AgentID:   "a2",
				FullName:  "Козлов Пётр Павлович",
				PhoneE164: "+79995556677",
				CreatedAt: created,
			},
		},
	}
}

func TestRenderContactsXLSX(t *testing.T) {
	stats := []*AgentPeriodStats{
		{AgentID: "a1", ChatID: 100, Username: "@test_agent", Name: "Тест Агент", Total: 1, Consent: 1, Hand: 1, HomeYes: 1},
	}
	content, err := RenderContactsXLSX(sampleExportRows(), stats, "Весь период")
	require.NoError(t, err)
	require.NotEmpty(t, content)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Данные")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two contacts")
	assert.Equal(t, contactsExportHeader, rows[0][:len(contactsExportHeader)])
	assert.Contains(t, rows[1], "Петров Сидор Иванович")
	assert.Contains(t, rows[1], "@test_agent")
	assert.Contains(t, rows[1], "Согласие")
	assert.Contains(t, rows[1], "На руки")
	assert.Contains(t, rows[2], "Козлов Пётр Павлович")

	summary, err := f.GetRows("Сводка")
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Contains(t, summary[1], "Весь период")
	assert.Contains(t, summary[1], "@test_agent")
}

func TestRenderSummaryXLSX(t *testing.T) {
	stats := []*AgentPeriodStats{
		{Username: "@one", Name: "Один", Total: 2, Consent: 1, Refusal: 1},
		{Username: "@two", Name: "Два", Total: 1, NoOne: 1},
	}
	content, err := RenderSummaryXLSX(stats, "7 дней")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Сводка")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, summaryExportHeader, rows[0][:len(summaryExportHeader)])
	assert.Contains(t, rows[1], "@one")
	assert.Contains(t, rows[2], "@two")
}

func TestRenderContactsCSV(t *testing.T) {
	content, err := RenderContactsCSV(sampleExportRows())
	require.NoError(t, err)

	text := string(content)
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ФИО избирателя")
	assert.Contains(t, text, "Петров Сидор Иванович")
	assert.Contains(t, text, "+79991234567")
	assert.Contains(t, text, "Да")
	assert.Contains(t, text, "2026-08-30 12:00:00")
}
