// Package main is the entry point for the staking rewards reporter, which
// computes reward totals and the annualized return of a staking address.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yourorg/staking-rewards/internal/circuitbreaker"
	"github.com/yourorg/staking-rewards/internal/config"
	"github.com/yourorg/staking-rewards/internal/export"
	"github.com/yourorg/staking-rewards/internal/fetch"
	"github.com/yourorg/staking-rewards/internal/ledger"
	"github.com/yourorg/staking-rewards/internal/model"
	"github.com/yourorg/staking-rewards/internal/otel"
	"github.com/yourorg/staking-rewards/internal/pipeline"
	"github.com/yourorg/staking-rewards/internal/security"
	"github.com/yourorg/staking-rewards/internal/telemetry"
	"github.com/yourorg/staking-rewards/internal/validation"
)

// reportOptions holds the flags of the report command
type reportOptions struct {
	network      string
	address      string
	name         string
	ticker       string
	currency     string
	start        string
	end          string
	startBalance float64
	out          string
	sign         bool
}

func main() {
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config.Load()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "staking-rewards",
		Short:         "Staking reward reports with fiat values and annualized return",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfg.NetworksFile, "networks-file", cfg.NetworksFile,
		"YAML file overriding the network table")

	root.AddCommand(newReportCmd(&cfg), newNetworksCmd(&cfg))
	return root
}

func newReportCmd(cfg *config.Config) *cobra.Command {
	opts := reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Fetch rewards and prices for an address and compute its metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), *cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.network, "network", "polkadot", "Network identifier")
	f.StringVar(&opts.address, "address", "", "Stash address to analyse")
	f.StringVar(&opts.name, "name", "", "Display name of the address")
	f.StringVar(&opts.ticker, "ticker", "", "Token ticker, defaults to the network's")
	f.StringVar(&opts.currency, "currency", cfg.Currency, "Fiat currency code")
	f.StringVar(&opts.start, "start", "", "First day, YYYY-MM-DD")
	f.StringVar(&opts.end, "end", "", "Last day, YYYY-MM-DD")
	f.Float64Var(&opts.startBalance, "start-balance", config.GetEnvAsFloat("START_BALANCE", 0),
		"Staked balance at the start of the range, in tokens")
	f.StringVar(&opts.out, "out", "-", "Output file, - for stdout")
	f.BoolVar(&opts.sign, "sign", cfg.SigningKey != "", "Sign the report with SIGNING_KEY")

	f.StringVar(&cfg.SubscanAPIKey, "subscan-api-key", cfg.SubscanAPIKey, "Subscan API key")
	f.IntVar(&cfg.APISleepDelay, "api-sleep-delay", cfg.APISleepDelay, "Milliseconds between API calls")
	f.StringVar(&cfg.PriceAPI, "price-api", cfg.PriceAPI, "CoinGecko compatible price API base URL")
	f.StringVar(&cfg.MetricsTextfile, "metrics-textfile", cfg.MetricsTextfile,
		"Write run metrics to this node_exporter textfile")
	f.StringVar(&cfg.WebhookURL, "webhook-url", cfg.WebhookURL, "POST the finished report to this URL")
	f.Float64Var(&cfg.MaxAnnualizedReturn, "max-annualized-return", cfg.MaxAnnualizedReturn,
		"Reject reports above this annualized return, 0 disables")
	f.Float64Var(&cfg.MaxPriceChange, "max-price-change", cfg.MaxPriceChange,
		"Reject reports whose price moves more than this ratio between days, 0 disables")

	for _, name := range []string{"address", "start", "end", "start-balance"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newNetworksCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List the known networks and their denominations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := config.LoadNetworks(cfg.NetworksFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range registry.Names() {
				n, _ := registry.Lookup(name)
				fmt.Fprintf(out, "%-12s %-6s decimals=%-3d factor=%g coingecko=%s\n",
					name, n.Ticker, n.Decimals, n.Denomination(), n.CoinGeckoID)
			}
			return nil
		},
	}
}

func runReport(ctx context.Context, cfg config.Config, opts reportOptions) error {
	shutdown := otel.InitTracer(cfg)
	defer shutdown()

	rng, err := validation.ParseRange(opts.start, opts.end)
	if err != nil {
		return err
	}
	if err := validation.VerifyUserInput(rng); err != nil {
		return err
	}

	registry, err := config.LoadNetworks(cfg.NetworksFile)
	if err != nil {
		return err
	}
	network, err := registry.Lookup(opts.network)
	if err != nil {
		return err
	}

	ticker := opts.ticker
	if ticker == "" {
		ticker = network.Ticker
	}

	var signer *security.Signer
	if opts.sign {
		if signer, err = security.NewSigner(cfg.SigningKey); err != nil {
			return err
		}
	}

	metrics := telemetry.New()

	var guard *circuitbreaker.CircuitBreaker
	thresholds := circuitbreaker.Thresholds{
		MaxAnnualizedReturn: cfg.MaxAnnualizedReturn,
		MaxPriceChange:      cfg.MaxPriceChange,
	}
	if thresholds.Enabled() {
		guard = circuitbreaker.New(thresholds).WithTripCallback(func(string, *model.Report) {
			metrics.GuardTripped()
		})
	}

	runner := &pipeline.Runner{
		Rewards:      fetch.NewSubscanClient(network.SubscanURL, cfg.SubscanAPIKey, cfg.APISleepDelay, metrics),
		Prices:       fetch.NewPriceClient(cfg.PriceAPI, network.CoinGeckoID, cfg.APISleepDelay, metrics),
		Denominator:  registry,
		Metrics:      metrics,
		Guard:        guard,
		FetchTimeout: cfg.RequestTimeout,
	}

	logrus.WithFields(logrus.Fields{
		"network": opts.network,
		"address": opts.address,
		"start":   opts.start,
		"end":     opts.end,
	}).Info("Generating report")

	report, err := runner.Run(ctx, pipeline.Request{
		Range: rng,
		Params: ledger.Params{
			Network:       opts.network,
			Name:          opts.name,
			Address:       opts.address,
			Currency:      opts.currency,
			StartBalance:  opts.startBalance,
			Ticker:        ticker,
			SubscanAPIKey: cfg.SubscanAPIKey,
			APISleepDelay: cfg.APISleepDelay,
			PriceAPI:      cfg.PriceAPI,
		},
	})
	if werr := metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
		logrus.Warnf("Failed to write metrics textfile: %v", werr)
	}
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"first_reward":      report.FirstReward,
		"last_reward":       report.LastReward,
		"total_value":       formatFiat(report.TotalValueFiat, report.Currency),
		"current_value":     formatFiat(report.CurrentValueRewardsFiat, report.Currency),
		"annualized_return": fmt.Sprintf("%.2f%%", report.AnnualizedReturn*100),
	}).Info("Report summary")

	var out interface{} = report
	if signer != nil {
		signed, err := signer.Sign(report)
		if err != nil {
			return err
		}
		logrus.WithField("signer", signer.Address()).Info("Report signed")
		out = signed
	}

	if err := export.WriteFile(opts.out, out); err != nil {
		return err
	}
	return export.NewWebhook(cfg.WebhookURL, cfg.WebhookAPIKey).Post(ctx, out)
}
