package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jake-scott/gira-x1/internal/pkg/callback"
	"github.com/jake-scott/gira-x1/internal/pkg/gateway"
	"github.com/jake-scott/gira-x1/internal/pkg/logging"
	"github.com/jake-scott/gira-x1/internal/pkg/mqttpub"
	"github.com/jake-scott/gira-x1/pkg/middlewares"
)

var _listenCmdOpts struct {
	port            uint16
	tlsCertPath     string
	tlsKeyPath      string
	queueSize       int
	corsOrigins     []string
	verifyToken     bool
	gracefulTimeout time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
	logRequests     bool
	mqttBroker      string
	mqttClientID    string
	mqttTopicRoot   string
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Receive value callbacks from the gateway and keep the device model current",

	RunE: func(cmd *cobra.Command, args []string) error {
		return doListen()
	},

	PreRunE: requireGateway,
}

func init() {
	listenCmd.Flags().Uint16Var(&_listenCmdOpts.port, "port", 5000, "callback listener port")
	listenCmd.Flags().StringVar(&_listenCmdOpts.tlsCertPath, "tls-cert", "", "TLS certificate file, serves plain HTTP if unset")
	listenCmd.Flags().StringVar(&_listenCmdOpts.tlsKeyPath, "tls-key", "", "TLS key file")
	listenCmd.Flags().IntVar(&_listenCmdOpts.queueSize, "queue-size", 32, "events buffered between the listener and the consumer")
	listenCmd.Flags().StringSliceVar(&_listenCmdOpts.corsOrigins, "cors-origins", nil, "origins allowed to call the listener from a browser")
	listenCmd.Flags().BoolVar(&_listenCmdOpts.verifyToken, "verify-token", false, "reject callbacks that do not carry this client's token")
	listenCmd.Flags().DurationVar(&_listenCmdOpts.gracefulTimeout, "graceful-timeout", time.Second*15, "duration to wait for the listener to finish, eg. 1m or 10s")
	listenCmd.Flags().DurationVar(&_listenCmdOpts.readTimeout, "read-timeout", time.Second*15, "duration to wait for request read, eg. 1m or 10s")
	listenCmd.Flags().DurationVar(&_listenCmdOpts.writeTimeout, "write-timeout", time.Second*30, "duration to wait for request write, eg. 1m or 10s")
	listenCmd.Flags().BoolVar(&_listenCmdOpts.logRequests, "log-requests", false, "log requests and responses (only in debug mode)")
	listenCmd.Flags().StringVar(&_listenCmdOpts.mqttBroker, "mqtt-broker", "", "republish events to this MQTT broker, eg. tcp://localhost:1883")
	listenCmd.Flags().StringVar(&_listenCmdOpts.mqttClientID, "mqtt-client-id", "gira-x1", "MQTT client ID prefix")
	listenCmd.Flags().StringVar(&_listenCmdOpts.mqttTopicRoot, "mqtt-topic-root", mqttpub.DefaultTopicRoot, "MQTT topic prefix")

	errPanic(viper.GetViper().BindPFlag("callback.port", listenCmd.Flags().Lookup("port")))
	errPanic(viper.GetViper().BindPFlag("callback.cert", listenCmd.Flags().Lookup("tls-cert")))
	errPanic(viper.GetViper().BindPFlag("callback.key", listenCmd.Flags().Lookup("tls-key")))
	errPanic(viper.GetViper().BindPFlag("callback.queue-size", listenCmd.Flags().Lookup("queue-size")))
	errPanic(viper.GetViper().BindPFlag("callback.cors-origins", listenCmd.Flags().Lookup("cors-origins")))
	errPanic(viper.GetViper().BindPFlag("callback.verify-token", listenCmd.Flags().Lookup("verify-token")))
	errPanic(viper.GetViper().BindPFlag("callback.graceful-timeout", listenCmd.Flags().Lookup("graceful-timeout")))
	errPanic(viper.GetViper().BindPFlag("callback.read-timeout", listenCmd.Flags().Lookup("read-timeout")))
	errPanic(viper.GetViper().BindPFlag("callback.write-timeout", listenCmd.Flags().Lookup("write-timeout")))
	errPanic(viper.GetViper().BindPFlag("logging.log-requests", listenCmd.Flags().Lookup("log-requests")))
	errPanic(viper.GetViper().BindPFlag("mqtt.broker", listenCmd.Flags().Lookup("mqtt-broker")))
	errPanic(viper.GetViper().BindPFlag("mqtt.client-id", listenCmd.Flags().Lookup("mqtt-client-id")))
	errPanic(viper.GetViper().BindPFlag("mqtt.topic-root", listenCmd.Flags().Lookup("mqtt-topic-root")))

	rootCmd.AddCommand(listenCmd)
}

func newCallbackRouter(client *gateway.Client, events chan<- callback.Event) http.Handler {
	var logRequests bool
	if viper.GetBool("logging.log-requests") {
		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			logRequests = true
		} else {
			logging.Logger(nil).Warn("log-requests ignored when not in debug mode")
		}
	}

	h := callback.NewHandler(events)
	if viper.GetBool("callback.verify-token") {
		h = h.WithTokenCheck(client.CheckToken)
	}

	r := mux.NewRouter()
	if origins := viper.GetStringSlice("callback.cors-origins"); len(origins) > 0 {
		r.Use(middlewares.NewCorsMw(origins))
	}
	r.Use(middlewares.NewCorrelationMw(middlewares.DefaultCorrelationHeader))
	r.Use(middlewares.NewLoggingMw(logRequests))
	r.Use(middlewares.NewRecoveryMw())
	r.HandleFunc("/", callback.Health).Methods(http.MethodGet)
	r.Handle("/", h).Methods(http.MethodPost)

	return r
}

// consumeLoop applies events to the device model in arrival order and
// republishes them when a publisher is configured.  It returns once events
// is closed and drained, or straight away when ctx is cancelled.
func consumeLoop(ctx context.Context, client *gateway.Client, pub *mqttpub.Publisher, events <-chan callback.Event) {
	for {
		var ev callback.Event
		var ok bool

		select {
		case <-ctx.Done():
			logging.Logger(ctx).Info("consume-loop: cancelled")
			return
		case ev, ok = <-events:
		}

		if !ok {
			logging.Logger(ctx).Info("consume-loop: done")
			return
		}

		if _, err := client.ApplyEvent(ctx, ev); err != nil {
			logging.Logger(ctx).WithError(err).Warnf("consume-loop: ignoring event for %s", ev.UID)
			continue
		}

		if pub != nil {
			if err := pub.Publish(ctx, ev); err != nil {
				logging.Logger(ctx).WithError(err).Errorf("consume-loop: republishing %s", ev.UID)
			}
		}
	}
}

// serveUntilSignal runs s until a signal arrives on stop, which returns nil,
// or until the listener fails, which returns the failure
func serveUntilSignal(s *http.Server, certFile, keyFile string, stop <-chan os.Signal) error {
	serveErr := make(chan error, 1)
	go func() {
		var err error
		if certFile != "" && keyFile != "" {
			err = s.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = s.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
		return nil
	case err := <-serveErr:
		return errors.Wrap(err, "running listener")
	}
}

func doListen() error {
	wait := viper.GetDuration("callback.graceful-timeout")
	port := viper.GetUint("callback.port")
	certFile := viper.GetString("callback.cert")
	keyFile := viper.GetString("callback.key")

	queueSize := viper.GetInt("callback.queue-size")
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newGatewayClient()
	if err := client.Connect(ctx); err != nil {
		return err
	}
	logging.Logger(ctx).Infof("gateway model ready: %d devices, %d locations", client.Devices().Len(), client.Locations().Len())

	var pub *mqttpub.Publisher
	if broker := viper.GetString("mqtt.broker"); broker != "" {
		pub = mqttpub.NewPublisher(broker, viper.GetString("mqtt.client-id"), viper.GetString("mqtt.topic-root"))
		if err := pub.Connect(ctx); err != nil {
			return err
		}
		defer pub.Disconnect()
	}

	events := make(chan callback.Event, queueSize)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumeLoop(ctx, client, pub, events)
	}()

	s := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		ReadTimeout:  viper.GetDuration("callback.read-timeout"),
		WriteTimeout: viper.GetDuration("callback.write-timeout"),
		IdleTimeout:  time.Second * 60,
		Handler:      newCallbackRouter(client, events),
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	logging.Logger(nil).Infof("Listening for callbacks on port %d", port)
	if err := serveUntilSignal(s, certFile, keyFile, c); err != nil {
		cancel()
		wg.Wait()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), wait)
	defer shutdownCancel()
	logging.Logger(nil).Info("shutting down")
	if err := s.Shutdown(shutdownCtx); err != nil {
		// handlers may still be sending, so abandon the queue
		logging.Logger(nil).WithError(err).Errorf("shutting down")
		cancel()
	} else {
		// no handler can send once Shutdown has returned
		close(events)
	}
	wg.Wait()

	logging.Logger(nil).Info("exiting")
	return nil
}
