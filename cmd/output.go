package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.PersistentFlags().String("format", "text", "output format: text, json or yaml")
	errPanic(viper.GetViper().BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format")))
}

// render writes v in the configured output format.  text is used for the
// text format so each command can lay out its own table.
func render(out io.Writer, v interface{}, text func(w io.Writer) error) error {
	switch format := viper.GetString("output.format"); format {
	case "json":
		b, err := json.MarshalIndent(v, "", "    ")
		if err != nil {
			return errors.Wrap(err, "encoding json")
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "encoding yaml")
		}
		return enc.Close()
	case "text", "":
		return text(out)
	default:
		return fmt.Errorf("unknown output format [%s]", format)
	}
}

func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("expected a number between 0 and 65535, got [%s]", s)
	}

	return uint16(v), nil
}
