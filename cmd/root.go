package cmd

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ish-xyz/roster-photocache/pkg/coordinator"
	"github.com/ish-xyz/roster-photocache/pkg/fetch"
	"github.com/ish-xyz/roster-photocache/pkg/metrics"
	"github.com/ish-xyz/roster-photocache/pkg/roster"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	configFile string
	rosterFile string
	wait       time.Duration
	debug      bool
	trace      bool
	rootCmd    = &cobra.Command{
		Short: "roster-photocache",
		Use:   "Render a roster table, loading member photos in the background",
		Run:   start,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "pass the config file path")
	rootCmd.Flags().StringVarP(&rosterFile, "roster", "r", "", "pass the roster file path")
	rootCmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "max time to wait for photos before rendering")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "run in debug mode")
	rootCmd.Flags().BoolVarP(&trace, "trace", "t", false, "run in trace mode")

	rootCmd.MarkFlagRequired("config")
	rootCmd.MarkFlagRequired("roster")
}

func getHttpClientWithCA(capath string) (*http.Client, error) {
	if capath == "" {
		return &http.Client{}, nil
	}

	caCert, err := os.ReadFile(capath)
	if err != nil {
		return nil, err
	}
	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("no certificates found in %s", capath)
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs: caCertPool,
			},
		},
	}

	return client, nil
}

func start(c *cobra.Command, args []string) {

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if trace {
		logrus.SetLevel(logrus.TraceLevel)
	}

	logrus.Infoln("loading and validating config...")
	cfg, err := LoadAndValidateConfig(configFile)
	if err != nil {
		logrus.Fatal("failed to load/validate config: \n", err)
	}

	logrus.Infoln("configuration:")
	yamlData, err := yaml.Marshal(cfg)
	if err == nil {
		fmt.Println(string(yamlData))
	} else {
		logrus.Errorln("can't print config")
	}

	logrus.Infoln("loading roster...")
	members, err := roster.LoadMembers(rosterFile)
	if err != nil {
		logrus.Fatalln("failed to load roster:", err)
	}

	httpClient, err := getHttpClientWithCA(cfg.Fetch.CAPath)
	if err != nil {
		logrus.Fatalln("error loading CA:", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Address != "" {
		go metrics.Run(ctx, cfg.Metrics.Address)
	}

	logrus.Infoln("initializing photo coordinator...")
	table := roster.NewTable(members)
	coord := coordinator.NewCoordinator(
		cfg.CoordinatorConfig(),
		fetch.NewFetcher(httpClient, cfg.FetchConfig()),
		table.Apply,
	)
	logrus.Infoln("photo view", coord.ID())
	coord.Start(ctx)
	table.Populate(coord)

	// set up signal capturing
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	signal.Notify(stop, syscall.SIGTERM)

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)

	settle(coord, table, stop, reload, time.After(wait))

	fmt.Println(table.Render())

	coord.Shutdown()
	logrus.Traceln("cached photos:", coord.Cache().Keys())
	logrus.Infof("%d of %d photos still loading at exit, %d cached", table.Unsettled(), len(members), coord.Cache().Len())
}

// settle runs the control loop until every row resolved, the deadline fires or stop receives.
// A signal on reload drops the cache and requests every row again.
// It returns the locators still pending when it gave up.
func settle(coord *coordinator.Coordinator, table *roster.Table, stop, reload <-chan os.Signal, deadline <-chan time.Time) []string {
	for table.Unsettled() > 0 {
		select {
		case comp := <-coord.Results():
			coord.Dispatch(comp)
		case <-reload:
			logrus.Infoln("reloading photos...")
			coord.Refresh()
			table.Populate(coord)
		case <-deadline:
			logrus.Warnln("gave up waiting for photos")
			return abandon(coord)
		case sig := <-stop:
			logrus.Infoln("received", sig, "stopping...")
			return abandon(coord)
		}
	}
	return nil
}

// abandon applies whatever already completed and reports what is left.
func abandon(coord *coordinator.Coordinator) []string {
	if n := coord.Poll(); n > 0 {
		logrus.Debugf("%d late deliveries applied", n)
	}
	pending := coord.PendingLocators()
	for _, locator := range pending {
		logrus.Warnln("still loading:", locator)
	}
	logrus.Debugf("%d locators pending, %d queued", len(pending), coord.Queued())
	return pending
}
