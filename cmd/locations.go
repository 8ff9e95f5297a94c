package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jake-scott/gira-x1/internal/pkg/gateway"
	"github.com/jake-scott/gira-x1/internal/pkg/locations"
)

var locationsCmd = &cobra.Command{
	Use:   "locations [id]",
	Short: "Show the location tree, or one location and its devices",
	Args:  cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			id, err := parseUint16(args[0])
			if err != nil {
				return err
			}
			return doLocation(cmd.OutOrStdout(), id)
		}

		return doLocations(cmd.OutOrStdout())
	},

	PreRunE: requireGateway,
}

func init() {
	rootCmd.AddCommand(locationsCmd)
}

func connectedClient() (*gateway.Client, error) {
	client := newGatewayClient()
	if err := client.Connect(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

func doLocations(out io.Writer) error {
	client, err := connectedClient()
	if err != nil {
		return err
	}

	m := client.Locations()
	return render(out, m.All(), func(w io.Writer) error {
		return printTree(w, m, locations.RootID, 0)
	})
}

func printTree(w io.Writer, m *locations.Map, id uint16, depth int) error {
	loc, err := m.Get(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s%s [%d] (%s, %d functions)\n", strings.Repeat("  ", depth), loc.DisplayName, loc.ID, loc.LocationType, len(loc.Functions))

	for _, child := range loc.Children {
		if err := printTree(w, m, child, depth+1); err != nil {
			return err
		}
	}

	return nil
}

type locationDetail struct {
	locations.Location `yaml:",inline"`
	Path               []string `json:"path" yaml:"path"`
	Devices            []string `json:"devices" yaml:"devices"`
}

func doLocation(out io.Writer, id uint16) error {
	client, err := connectedClient()
	if err != nil {
		return err
	}

	loc, err := client.Locations().Get(id)
	if err != nil {
		return fmt.Errorf("location %d: %w", id, err)
	}

	path, err := client.Locations().Path(id)
	if err != nil {
		return err
	}

	detail := locationDetail{
		Location: loc,
		Path:     path,
		Devices:  client.Devices().InLocation(id),
	}

	return render(out, detail, func(w io.Writer) error {
		fmt.Fprintf(w, "%s (%s)\n", strings.Join(detail.Path, " / "), loc.LocationType)
		for _, uid := range detail.Devices {
			fmt.Fprintf(w, "  %s\n", uid)
		}
		return nil
	})
}
