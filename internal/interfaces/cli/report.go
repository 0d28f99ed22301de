package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/molstandardizer/internal/infrastructure/database/postgres/repositories"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	var (
		id    string
		key   string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize stored standardization results",
		Long: "Without flags, prints stored result counts by status and rejection reason.\n" +
			"With --key, lists the stored results that share a canonical key.\n" +
			"With --id, prints one stored result.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPostgres(cmd, func(b *backends) error {
				conn, err := b.postgres()
				if err != nil {
					return err
				}
				cliCtx, _ := GetCLIContext(cmd)
				repo := repositories.NewResultRepository(conn, cliCtx.Logger.Named("results"))

				switch {
				case id != "":
					res, err := repo.FindByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					return PrintResult(cmd, resultList{res})
				case key != "":
					results, err := repo.FindByCanonicalKey(cmd.Context(), key, limit)
					if err != nil {
						return err
					}
					return PrintResult(cmd, resultList(results))
				}
				counts, err := repo.CountByStatus(cmd.Context())
				if err != nil {
					return err
				}
				return PrintResult(cmd, statusReport(counts))
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "print the stored result with this record id")
	cmd.Flags().StringVar(&key, "key", "", "list results with this canonical key")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum results listed with --key")
	return cmd
}

type statusReport []repositories.StatusCount

func (r statusReport) RenderText() string {
	rows := make([][]string, 0, len(r))
	var total int64
	for _, c := range r {
		rows = append(rows, []string{string(c.Status), c.Reason, strconv.FormatInt(c.Count, 10)})
		total += c.Count
	}
	return FormatTable([]string{"STATUS", "REASON", "COUNT"}, rows) +
		fmt.Sprintf("total: %d\n", total)
}

type resultList []*dto.StandardizeResult

func (l resultList) RenderText() string {
	if len(l) == 0 {
		return "no results\n"
	}
	rows := make([][]string, 0, len(l))
	for _, r := range l {
		rows = append(rows, []string{
			r.ID,
			r.Formula,
			strconv.Itoa(r.HeavyAtoms),
			time.Time(r.ProcessedAt).Format(time.RFC3339),
			r.SMILES,
		})
	}
	return FormatTable([]string{"ID", "FORMULA", "HEAVY", "PROCESSED", "SMILES"}, rows)
}
