package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func fractionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fractions <zipcode> <street> <house-number>",
		Short: "List the waste fractions collected at an address",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			zipCodeID, streetID, houseNumber, err := resolveArgs(cmd, args)
			if err != nil {
				return err
			}

			fractions, err := client.GetFractions(cmd.Context(), zipCodeID, streetID, houseNumber, language)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(fractions))
			byName := make(map[string]string, len(fractions))
			for id, f := range fractions {
				names = append(names, f.Name)
				byName[f.Name] = id
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Printf("%s  %s\n", byName[name], name)
			}
			return nil
		},
	}
	return cmd
}
