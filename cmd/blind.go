package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jake-scott/gira-x1/internal/pkg/devices"
	"github.com/jake-scott/gira-x1/internal/pkg/gateway"
)

type blindAction struct {
	needsValue bool
	run        func(ctx context.Context, b *devices.Blind, c *gateway.Client, v uint16) error
}

var blindActions = map[string]blindAction{
	"up": {run: func(ctx context.Context, b *devices.Blind, c *gateway.Client, _ uint16) error {
		return b.Up(ctx, c)
	}},
	"down": {run: func(ctx context.Context, b *devices.Blind, c *gateway.Client, _ uint16) error {
		return b.Down(ctx, c)
	}},
	"step-up": {run: func(ctx context.Context, b *devices.Blind, c *gateway.Client, _ uint16) error {
		return b.StepUp(ctx, c)
	}},
	"step-down": {run: func(ctx context.Context, b *devices.Blind, c *gateway.Client, _ uint16) error {
		return b.StepDown(ctx, c)
	}},
	"position": {needsValue: true, run: func(ctx context.Context, b *devices.Blind, c *gateway.Client, v uint16) error {
		return b.SetPosition(ctx, c, v)
	}},
	"status": {run: func(ctx context.Context, b *devices.Blind, c *gateway.Client, _ uint16) error {
		return b.Refresh(ctx, c)
	}},
}

var blindCmd = &cobra.Command{
	Use:   "blind [uid [up|down|step-up|step-down|position <value>|status]]",
	Short: "List blinds, or operate one",
	Args:  cobra.MaximumNArgs(3),

	RunE: func(cmd *cobra.Command, args []string) error {
		return doBlind(cmd.OutOrStdout(), args)
	},

	PreRunE: requireGateway,
}

func init() {
	rootCmd.AddCommand(blindCmd)
}

func doBlind(out io.Writer, args []string) error {
	ctx := context.Background()

	client, err := connectedClient()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		for _, name := range client.Devices().BlindNames() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	uid, action, value, err := actionArgs(args, func(a string) (bool, bool) {
		ba, ok := blindActions[a]
		return ba.needsValue, ok
	})
	if err != nil {
		return fmt.Errorf("%w (actions: %s)", err, actionNames(blindActions))
	}

	b, err := client.Devices().Blind(uid)
	if err != nil {
		return fmt.Errorf("blind %s: %w", uid, err)
	}

	if err := blindActions[action].run(ctx, b, client, value); err != nil {
		return err
	}

	return render(out, newDeviceRow(client, b, "blind"), func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s (%s): %s\n", b.Name(), b.UID(), capabilityList(b))
		return err
	})
}
