package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jake-scott/gira-x1/internal/pkg/devices"
	"github.com/jake-scott/gira-x1/internal/pkg/gateway"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the lights and blinds known to the gateway",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return doDevices(cmd.OutOrStdout())
	},

	PreRunE: requireGateway,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

type deviceRow struct {
	UID          string            `json:"uid" yaml:"uid"`
	Name         string            `json:"name" yaml:"name"`
	Type         string            `json:"type" yaml:"type"`
	Location     *uint16           `json:"location,omitempty" yaml:"location,omitempty"`
	Path         string            `json:"path,omitempty" yaml:"path,omitempty"`
	Capabilities map[string]uint16 `json:"capabilities" yaml:"capabilities"`
}

// device is what lights and blinds have in common
type device interface {
	UID() string
	Name() string
	Location() (uint16, bool)
	Bindings() []*devices.Binding
}

func newDeviceRow(client *gateway.Client, d device, typ string) deviceRow {
	row := deviceRow{
		UID:          d.UID(),
		Name:         d.Name(),
		Type:         typ,
		Capabilities: make(map[string]uint16),
	}

	if id, ok := d.Location(); ok {
		row.Location = &id
		if path, err := client.Locations().Path(id); err == nil {
			row.Path = strings.Join(path, " / ")
		}
	}

	for _, b := range d.Bindings() {
		row.Capabilities[b.Capability().String()] = b.Cached()
	}

	return row
}

func deviceRows(client *gateway.Client) []deviceRow {
	var rows []deviceRow
	for _, l := range client.Devices().Lights() {
		rows = append(rows, newDeviceRow(client, l, l.Kind().String()+" light"))
	}
	for _, b := range client.Devices().Blinds() {
		rows = append(rows, newDeviceRow(client, b, "blind"))
	}

	return rows
}

func capabilityList(d device) string {
	var caps []string
	for _, b := range d.Bindings() {
		caps = append(caps, fmt.Sprintf("%s=%d", b.Capability(), b.Cached()))
	}

	return strings.Join(caps, ",")
}

func doDevices(out io.Writer) error {
	client, err := connectedClient()
	if err != nil {
		return err
	}

	return render(out, deviceRows(client), func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "UID\tNAME\tTYPE\tLOCATION\tVALUES")

		for _, l := range client.Devices().Lights() {
			fmt.Fprintf(tw, "%s\t%s\t%s light\t%s\t%s\n", l.UID(), l.Name(), l.Kind(), locationName(client, l), capabilityList(l))
		}
		for _, b := range client.Devices().Blinds() {
			fmt.Fprintf(tw, "%s\t%s\tblind\t%s\t%s\n", b.UID(), b.Name(), locationName(client, b), capabilityList(b))
		}

		return tw.Flush()
	})
}

func locationName(client *gateway.Client, d device) string {
	id, ok := d.Location()
	if !ok {
		return "-"
	}

	loc, err := client.Locations().Get(id)
	if err != nil {
		return fmt.Sprintf("#%d", id)
	}

	return loc.DisplayName
}
