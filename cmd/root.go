package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jake-scott/gira-x1/internal/pkg/gateway"
	"github.com/jake-scott/gira-x1/internal/pkg/logging"
)

var _rootCmdOpts struct {
	cfgFile          string
	debug            bool
	address          string
	username         string
	password         string
	clientID         string
	timeout          time.Duration
	insecureTLS      bool
	valueConcurrency int
	logLocation      string
	logFormat        string
	logLevel         string
}

var rootCmd = &cobra.Command{
	Use:   "gira-x1",
	Short: "Client and event listener for the Gira X1 home automation gateway",

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _rootCmdOpts.debug {
			logrus.SetLevel(logrus.DebugLevel)
		}

		return logging.Configure(viper.GetViper())
	},
}

// Execute runs the command line and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func errPanic(err error) {
	if err != nil {
		panic(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&_rootCmdOpts.cfgFile, "config", "", "config file (default is $HOME/.gira-x1.yaml)")
	pf.BoolVar(&_rootCmdOpts.debug, "debug", false, "enable debug logging")
	pf.StringVar(&_rootCmdOpts.address, "gateway", "", "gateway host name or address")
	pf.StringVar(&_rootCmdOpts.username, "username", "", "gateway user name")
	pf.StringVar(&_rootCmdOpts.password, "password", "", "gateway password")
	pf.StringVar(&_rootCmdOpts.clientID, "client-id", gateway.DefaultClientID, "client identifier registered with the gateway")
	pf.DurationVar(&_rootCmdOpts.timeout, "timeout", time.Second*15, "maximum duration of a gateway request, eg. 1m or 10s")
	pf.BoolVar(&_rootCmdOpts.insecureTLS, "insecure-tls", false, "do not verify the gateway certificate")
	pf.IntVar(&_rootCmdOpts.valueConcurrency, "value-concurrency", 4, "number of concurrent value reads while building devices")
	pf.StringVar(&_rootCmdOpts.logLocation, "log-location", "stderr", "stderr, stdout or a file name")
	pf.StringVar(&_rootCmdOpts.logFormat, "log-format", "text", "text or json")
	pf.StringVar(&_rootCmdOpts.logLevel, "log-level", "info", "minimum level to log")

	errPanic(viper.GetViper().BindPFlag("gateway.address", pf.Lookup("gateway")))
	errPanic(viper.GetViper().BindPFlag("gateway.username", pf.Lookup("username")))
	errPanic(viper.GetViper().BindPFlag("gateway.password", pf.Lookup("password")))
	errPanic(viper.GetViper().BindPFlag("gateway.client-id", pf.Lookup("client-id")))
	errPanic(viper.GetViper().BindPFlag("gateway.timeout", pf.Lookup("timeout")))
	errPanic(viper.GetViper().BindPFlag("gateway.insecure-tls", pf.Lookup("insecure-tls")))
	errPanic(viper.GetViper().BindPFlag("gateway.value-concurrency", pf.Lookup("value-concurrency")))
	errPanic(viper.GetViper().BindPFlag("logging.location", pf.Lookup("log-location")))
	errPanic(viper.GetViper().BindPFlag("logging.format", pf.Lookup("log-format")))
	errPanic(viper.GetViper().BindPFlag("logging.level", pf.Lookup("log-level")))
}

func initConfig() {
	if _rootCmdOpts.cfgFile != "" {
		viper.SetConfigFile(_rootCmdOpts.cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".gira-x1")
	}

	viper.SetEnvPrefix("GIRAX1")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logging.Logger(nil).Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok || _rootCmdOpts.cfgFile != "" {
		fmt.Fprintf(os.Stderr, "reading config: %s\n", err)
		os.Exit(1)
	}
}

func checkRequiredFlags(needFlags ...string) error {
	missingFlags := []string{}

	for _, f := range needFlags {
		if !viper.IsSet(f) || viper.GetString(f) == "" {
			missingFlags = append(missingFlags, f)
		}
	}

	if len(missingFlags) > 0 {
		itemPlural := "item"
		if len(missingFlags) > 1 {
			itemPlural = "items"
		}
		return fmt.Errorf("required config %s `%s` not set", itemPlural, strings.Join(missingFlags, "`, `"))
	}

	return nil
}

func requireGateway(cmd *cobra.Command, args []string) error {
	return checkRequiredFlags("gateway.address", "gateway.username", "gateway.password")
}

// newGatewayClient builds a client from the gateway.* settings
func newGatewayClient() *gateway.Client {
	return gateway.New(gateway.Options{
		Address:          viper.GetString("gateway.address"),
		Username:         viper.GetString("gateway.username"),
		Password:         viper.GetString("gateway.password"),
		ClientID:         viper.GetString("gateway.client-id"),
		Timeout:          viper.GetDuration("gateway.timeout"),
		InsecureTLS:      viper.GetBool("gateway.insecure-tls"),
		ValueConcurrency: viper.GetInt("gateway.value-concurrency"),
	})
}
