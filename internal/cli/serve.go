package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/todoledger/sdk-go/client"
	sdkcrypto "github.com/todoledger/sdk-go/pkg/crypto"
	sdklog "github.com/todoledger/sdk-go/pkg/log"
	"github.com/todoledger/sdk-go/server"
	"github.com/todoledger/sdk-go/tracker"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen          string
	MetricsListen   string
	RPCEndpoint     string
	WSEndpoint      string
	ContractAddress string
	KeyName         string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tracker gRPC service",
		Long: `Connect to the ledger, load the signing key and expose the tracker over gRPC.

Example:
  todoledger serve --config todoledger.yaml
  todoledger serve --rpc http://localhost:8545 --contract 0x5FbDB2315678afecb367f032d93F642f64180aa3 --key dev`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", ":9090", "gRPC listen address")
	cmd.Flags().StringVar(&opts.MetricsListen, "metrics-listen", ":9100", "prometheus listen address (empty disables)")
	cmd.Flags().StringVar(&opts.RPCEndpoint, "rpc", "", "JSON-RPC endpoint (overrides config)")
	cmd.Flags().StringVar(&opts.WSEndpoint, "ws", "", "websocket endpoint (overrides config)")
	cmd.Flags().StringVar(&opts.ContractAddress, "contract", "", "Todo contract address (overrides config)")
	cmd.Flags().StringVar(&opts.KeyName, "key", "", "keyring key name (overrides config)")

	return cmd
}

func (o *ServeOptions) overrides() []client.Option {
	var out []client.Option
	if o.RPCEndpoint != "" {
		out = append(out, client.WithRPCEndpoint(o.RPCEndpoint))
	}
	if o.WSEndpoint != "" {
		out = append(out, client.WithWSEndpoint(o.WSEndpoint))
	}
	if o.ContractAddress != "" {
		out = append(out, client.WithContractAddress(o.ContractAddress))
	}
	if o.KeyName != "" {
		out = append(out, client.WithKeyName(o.KeyName))
	}
	return out
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, flush, err := sdklog.NewDefault(opts.Verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer flush()

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	kr, err := sdkcrypto.NewKeyring(sdkcrypto.KeyringParams{
		AppName: cfg.Keyring.AppName,
		Backend: cfg.Keyring.Backend,
		Dir:     cfg.Keyring.Dir,
	})
	if err != nil {
		return fmt.Errorf("open keyring: %w", err)
	}

	clientOpts := append(opts.overrides(), client.WithLogger(logger))
	c, err := client.New(ctx, cfg, kr, clientOpts...)
	if err != nil {
		return err
	}
	defer c.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := tracker.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	c.SubscribeAll(metrics.Observe)

	if _, err := c.Refresh(ctx); err != nil {
		sdklog.Warnf(logger, "initial refresh failed: %v", err)
	}

	lis, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Listen, err)
	}
	srv := grpc.NewServer(grpc.UnaryInterceptor(server.UnaryLogger(logger)))
	server.RegisterTrackerServer(srv, &server.Server{Service: c})

	var metricsSrv *http.Server
	if opts.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: opts.MetricsListen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				sdklog.Errorf(logger, "metrics server: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()
	nc := c.Network()
	sdklog.Infof(logger, "tracker serving on %s (chain %d, signer %v)", opts.Listen, nc.ChainID, nc.Signer != nil)

	select {
	case <-ctx.Done():
		sdklog.Infof(logger, "shutting down")
		srv.GracefulStop()
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
