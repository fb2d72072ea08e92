package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/claimsift/claimsift/internal/dedupe"
	"github.com/claimsift/claimsift/internal/model"
	"github.com/claimsift/claimsift/internal/store"
)

var (
	reportDB  string
	reportDir string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Recompute aggregate exhibits from the claim store",
	Long: `Report reads the canonical claim set and writes the inventories and
aggregate exhibits (counts by domain, theme, state/year, code frequencies,
and RFP/proposal concordance).

Exhibits are pure projections: they are recomputed from stored claims on
every invocation and never feed back into the claim set.

Example:
  claimsift report
  claimsift report --db claims.db --output-dir ./exhibits`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportDB, "db", "claimsift.db", "claim store path")
	reportCmd.Flags().StringVar(&reportDir, "output-dir", "./claimsift-reports", "output directory")
}

func runReport(cmd *cobra.Command, args []string) error {
	st, err := store.Open(reportDB)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	docs, err := st.Documents()
	if err != nil {
		return err
	}
	claims, err := st.Claims()
	if err != nil {
		return err
	}
	partnerships, err := st.Partnerships()
	if err != nil {
		return err
	}
	audit, err := st.AuditEntries("")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	exhibits := dedupe.BuildExhibits(docs, claims)

	outputs := []struct {
		name  string
		write func(string) error
	}{
		{"claims.csv", func(p string) error { return store.ExportClaimsCSV(p, claims) }},
		{"partnerships.csv", func(p string) error { return store.ExportPartnershipsCSV(p, partnerships) }},
		{"audit.csv", func(p string) error { return store.ExportAuditCSV(p, audit) }},
		{"exhibits.json", func(p string) error { return store.ExportJSON(p, exhibits) }},
	}
	for _, out := range outputs {
		path := filepath.Join(reportDir, out.name)
		if err := out.write(path); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
		}
	}

	fmt.Printf("Claims:        %d\n", len(claims))
	fmt.Printf("Partnerships:  %d\n", len(partnerships))
	fmt.Printf("Audit entries: %d\n", len(audit))
	unverified, err := st.AuditEntries(model.AuditUnverifiedClaim)
	if err == nil {
		fmt.Printf("Unverified:    %d\n", len(unverified))
	}
	fmt.Printf("Output:        %s\n", reportDir)
	return nil
}
