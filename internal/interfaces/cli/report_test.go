package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/molstandardizer/pkg/types/common"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

func TestStatusReport_RenderText(t *testing.T) {
	out := statusReport{
		{Status: dto.StatusStandardized, Count: 12},
		{Status: dto.StatusRejected, Reason: "ContainsMetal", Count: 3},
	}.RenderText()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 5)
	assert.Equal(t, []string{"STATUS", "REASON", "COUNT"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"rejected", "ContainsMetal", "3"}, strings.Fields(lines[3]))
	assert.Equal(t, "total: 15", lines[4])
}

func TestResultList_RenderText(t *testing.T) {
	assert.Equal(t, "no results\n", resultList(nil).RenderText())

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := resultList{{
		ID:          "CHEM-1",
		Formula:     "C2H4O2",
		HeavyAtoms:  4,
		ProcessedAt: common.Timestamp(at),
		SMILES:      "CC(=O)O",
	}}.RenderText()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, []string{"CHEM-1", "C2H4O2", "4", "2026-03-01T12:00:00Z", "CC(=O)O"}, strings.Fields(lines[2]))
}

func TestReportCmd_Flags(t *testing.T) {
	cmd := NewReportCmd()
	for _, name := range []string{"id", "key", "limit"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "100", cmd.Flags().Lookup("limit").DefValue)
}
