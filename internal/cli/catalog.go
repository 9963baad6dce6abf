package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/greenhouse-games/accolade/internal/domain"
	"github.com/greenhouse-games/accolade/internal/infra/catalog"
)

func init() {
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog [file]",
	Short: "Validate and list a catalog file (or the built-in set)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	var (
		defs  []domain.AccomplishmentDef
		rules []domain.MetaRule
		err   error
	)
	if len(args) == 1 {
		defs, rules, err = catalog.Load(args[0])
		if err != nil {
			return err
		}
	} else {
		defs, rules = catalog.Default()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tRARITY\tPOINTS\tTRIGGER\tTARGET")
	for _, d := range defs {
		name := d.Name
		if d.IsSecret {
			name += " (secret)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%g\n",
			d.ID, name, d.Category, d.Rarity, d.Points, d.TriggerKey, d.TargetValue)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(rules) > 0 {
		fmt.Printf("\n%d meta-rule(s):\n", len(rules))
		for _, r := range rules {
			fmt.Printf("  %s: %s (emits %s)\n", r.ID, r.Name, r.TriggerKey)
		}
	}
	return nil
}
