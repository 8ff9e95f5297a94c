package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jake-scott/gira-x1/internal/pkg/devices"
	"github.com/jake-scott/gira-x1/internal/pkg/gateway"
)

type lightAction struct {
	needsValue bool
	run        func(ctx context.Context, l *devices.Light, c *gateway.Client, v uint16) error
}

var lightActions = map[string]lightAction{
	"on": {run: func(ctx context.Context, l *devices.Light, c *gateway.Client, _ uint16) error {
		return l.SwitchOn(ctx, c)
	}},
	"off": {run: func(ctx context.Context, l *devices.Light, c *gateway.Client, _ uint16) error {
		return l.SwitchOff(ctx, c)
	}},
	"toggle": {run: func(ctx context.Context, l *devices.Light, c *gateway.Client, _ uint16) error {
		return l.Toggle(ctx, c)
	}},
	"dim": {needsValue: true, run: func(ctx context.Context, l *devices.Light, c *gateway.Client, v uint16) error {
		return l.Dim(ctx, c, v)
	}},
	"tune": {needsValue: true, run: func(ctx context.Context, l *devices.Light, c *gateway.Client, v uint16) error {
		return l.Tune(ctx, c, v)
	}},
	"status": {run: func(ctx context.Context, l *devices.Light, c *gateway.Client, _ uint16) error {
		return l.Refresh(ctx, c)
	}},
}

var lightCmd = &cobra.Command{
	Use:   "light [uid [on|off|toggle|dim <value>|tune <value>|status]]",
	Short: "List lights, or operate one",
	Args:  cobra.MaximumNArgs(3),

	RunE: func(cmd *cobra.Command, args []string) error {
		return doLight(cmd.OutOrStdout(), args)
	},

	PreRunE: requireGateway,
}

func init() {
	rootCmd.AddCommand(lightCmd)
}

func actionNames[A any](actions map[string]A) string {
	names := make([]string, 0, len(actions))
	for n := range actions {
		names = append(names, n)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}

// actionArgs splits <uid> <action> [value], defaulting the action to status
func actionArgs(args []string, needsValue func(action string) (bool, bool)) (uid string, action string, value uint16, err error) {
	uid, action = args[0], "status"
	if len(args) > 1 {
		action = args[1]
	}

	want, known := needsValue(action)
	if !known {
		return "", "", 0, fmt.Errorf("unknown action [%s]", action)
	}

	switch {
	case want && len(args) != 3:
		return "", "", 0, fmt.Errorf("%s needs a value", action)
	case !want && len(args) == 3:
		return "", "", 0, fmt.Errorf("%s does not take a value", action)
	case want:
		value, err = parseUint16(args[2])
	}

	return uid, action, value, err
}

func doLight(out io.Writer, args []string) error {
	ctx := context.Background()

	client, err := connectedClient()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		for _, name := range client.Devices().LightNames() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	uid, action, value, err := actionArgs(args, func(a string) (bool, bool) {
		la, ok := lightActions[a]
		return la.needsValue, ok
	})
	if err != nil {
		return fmt.Errorf("%w (actions: %s)", err, actionNames(lightActions))
	}

	l, err := client.Devices().Light(uid)
	if err != nil {
		return fmt.Errorf("light %s: %w", uid, err)
	}

	if err := lightActions[action].run(ctx, l, client, value); err != nil {
		return err
	}

	return render(out, newDeviceRow(client, l, l.Kind().String()+" light"), func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s (%s): %s\n", l.Name(), l.UID(), capabilityList(l))
		return err
	})
}
