package commands

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"recycle-schedule-backend/internal/fostplus"
	"recycle-schedule-backend/internal/parse"
)

var (
	fromFlag  string
	untilFlag string
)

func collectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections <zipcode> <street> <house-number>",
		Short: "List upcoming collection dates for an address",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			zipCodeID, streetID, houseNumber, err := resolveArgs(cmd, args)
			if err != nil {
				return err
			}

			window, err := parse.ParseWindow(fromFlag, untilFlag, time.Now())
			if err != nil {
				return err
			}

			calendar, err := client.GetCollections(cmd.Context(), zipCodeID, streetID, houseNumber, window.From, window.Until)
			if err != nil {
				return err
			}
			if len(calendar) == 0 {
				fmt.Println("No collection data available for this address.")
				return nil
			}

			fractions, err := client.GetFractions(cmd.Context(), zipCodeID, streetID, houseNumber, language)
			if err != nil {
				return err
			}

			type entry struct {
				date time.Time
				name string
			}
			var entries []entry
			for fractionID, dates := range calendar {
				name := fractionID
				if f, ok := fractions[fractionID]; ok {
					name = f.Name
				}
				for _, d := range dates {
					entries = append(entries, entry{date: d, name: name})
				}
			}
			sort.Slice(entries, func(i, j int) bool {
				if !entries[i].date.Equal(entries[j].date) {
					return entries[i].date.Before(entries[j].date)
				}
				return entries[i].name < entries[j].name
			})

			for _, e := range entries {
				fmt.Printf("%s  %s\n", e.date.Format("2006-01-02"), e.name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "start of the window (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&untilFlag, "until", "", "end of the window (YYYY-MM-DD, default 8 weeks out)")
	return cmd
}

// resolveArgs turns <zipcode> <street> <house-number> positional arguments
// into the identifiers the schedule endpoints expect.
func resolveArgs(cmd *cobra.Command, args []string) (zipCodeID, streetID string, houseNumber int, err error) {
	zipCode, err := strconv.Atoi(args[0])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid zip code %q: %w", args[0], err)
	}
	houseNumber, err = strconv.Atoi(args[2])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid house number %q: %w", args[2], err)
	}

	matches, err := client.GetZipCode(cmd.Context(), zipCode, language)
	if err != nil {
		return "", "", 0, err
	}
	if len(matches) == 0 {
		return "", "", 0, fostplus.ErrZipCodeNotFound
	}

	street, err := client.GetStreet(cmd.Context(), args[1], matches[0].ID, language)
	if err != nil {
		return "", "", 0, err
	}
	return matches[0].ID, street.ID, houseNumber, nil
}
