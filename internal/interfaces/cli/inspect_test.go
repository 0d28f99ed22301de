package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molstandardizer/internal/application/standardization"
	pkgerrors "github.com/turtacn/molstandardizer/pkg/errors"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

func TestInspect_JSON(t *testing.T) {
	stdout, err := execute(t, "", "--output-format", "json", "inspect", "CC(=O)[O-].[Na+]")
	require.NoError(t, err)

	var report standardization.Inspection
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 1, report.StrippedAtoms)
	require.Len(t, report.Fragments, 1)
	require.NotNil(t, report.Result)
	assert.Equal(t, dto.StatusStandardized, report.Result.Status)
	assert.Equal(t, canonicalSMILES(t, "CC(=O)O"), report.Result.SMILES)
}

func TestInspect_Text(t *testing.T) {
	stdout, err := execute(t, "", "inspect", "[Fe]")
	require.NoError(t, err)
	assert.Contains(t, stdout, "METAL")
	assert.Contains(t, stdout, "status: rejected")
	assert.Contains(t, stdout, "ContainsMetal")
}

func TestInspect_Stdin(t *testing.T) {
	stdout, err := execute(t, "CCO\n", "inspect", "-")
	require.NoError(t, err)
	assert.Contains(t, stdout, "status: standardized")
}

func TestInspect_ParseError(t *testing.T) {
	_, err := execute(t, "", "inspect", "CC)C")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeMoleculeParsingFailed) ||
		pkgerrors.IsCode(err, pkgerrors.ErrCodeMoleculeInvalidSMILES))
}

func TestReportAndMigrate_RequirePostgres(t *testing.T) {
	for _, args := range [][]string{{"report"}, {"migrate", "up"}, {"migrate", "down"}} {
		_, err := execute(t, "", args...)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeServiceUnavailable), "%v", args)
	}
}
