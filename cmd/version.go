package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/jake-scott/gira-x1/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version number of the tool",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return doVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

type versionResult struct {
	Version string `json:"version" yaml:"version"`
}

func doVersion(out io.Writer) error {
	v := versionResult{Version: version.Version}

	return render(out, v, func(w io.Writer) error {
		_, err := io.WriteString(w, "gira-x1 version "+v.Version+"\n")
		return err
	})
}
