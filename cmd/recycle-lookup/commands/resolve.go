package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"recycle-schedule-backend/internal/fostplus"
)

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <zipcode> <street>",
		Short: "Resolve a zip code and street name to their RecycleApp identifiers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			zipCode, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid zip code %q: %w", args[0], err)
			}

			matches, err := client.GetZipCode(cmd.Context(), zipCode, language)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				return fostplus.ErrZipCodeNotFound
			}

			for _, m := range matches {
				fmt.Printf("Locality: %s (id %s)\n", m.Name, m.ID)
			}

			street, err := client.GetStreet(cmd.Context(), args[1], matches[0].ID, language)
			if err != nil {
				return err
			}
			fmt.Printf("Street:   %s (id %s)\n", street.Name, street.ID)
			return nil
		},
	}
	return cmd
}
