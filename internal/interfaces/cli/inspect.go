package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/molstandardizer/internal/application/standardization"
	"github.com/turtacn/molstandardizer/pkg/errors"
)

// NewInspectCmd creates the inspect command.
func NewInspectCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "inspect <structure|->",
		Short: "Show how one structure flows through standardization",
		Long: "Lists every fragment left after salt stripping with its predicates,\n" +
			"neutralized form and canonical key, then the standardized result.\n" +
			"Pass - to read the structure (e.g. a mol block) from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			raw := []byte(args[0])
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeBadRequest, "reading stdin")
				}
			}

			svc, err := standardization.NewService(standardization.Config{
				Concurrency:   1,
				RecordTimeout: cliCtx.Config.Standardizer.RecordTimeout,
			}, standardization.DefaultDependencies(cliCtx.Logger.Named("standardization")))
			if err != nil {
				return err
			}
			report, err := svc.Inspect(cmd.Context(), format, raw)
			if err != nil {
				return err
			}
			return PrintResult(cmd, inspectionView{report})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "smiles", "structure format smiles|molfile")
	return cmd
}

// inspectionView renders an Inspection as text; JSON output is the
// Inspection itself.
type inspectionView struct {
	*standardization.Inspection
}

func (v inspectionView) RenderText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "input:          %s\n", v.Input)
	fmt.Fprintf(&sb, "stripped atoms: %d\n\n", v.StrippedAtoms)

	rows := make([][]string, 0, len(v.Fragments))
	for _, f := range v.Fragments {
		note := f.CanonicalKey
		if f.Error != "" {
			note = "error: " + f.Error
		}
		rows = append(rows, []string{
			strconv.Itoa(f.Index),
			f.SMILES,
			f.Formula,
			strconv.Itoa(f.Classification.HeavyAtoms),
			yesNo(f.Classification.Inorganic),
			yesNo(f.Classification.DisallowedAtom),
			yesNo(f.Classification.Silane),
			f.NeutralSMILES,
			note,
		})
	}
	sb.WriteString(FormatTable(
		[]string{"#", "SMILES", "FORMULA", "HEAVY", "INORGANIC", "METAL", "SILANE", "NEUTRAL", "KEY"},
		rows,
	))

	if r := v.Result; r != nil {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "status: %s\n", r.Status)
		switch {
		case r.Succeeded():
			fmt.Fprintf(&sb, "smiles: %s\nkey:    %s\n", r.SMILES, r.CanonicalKey)
		case r.Reason != "":
			fmt.Fprintf(&sb, "reason: %s (%s)\n", r.Reason, r.Message)
		case r.Error != nil:
			fmt.Fprintf(&sb, "error:  %s %s\n", r.Error.Code, r.Error.Message)
		}
	}
	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
