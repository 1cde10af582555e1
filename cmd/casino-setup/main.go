// Command casino-setup generates a set of per-node YAML configs for a new
// casino chain cluster: one file per peer, with distinct ports and a shared
// bootstrapper list; no key or identity material is written. It follows
// spec.md §6's CLI contract (`setup generate --peers N --bootstrappers M
// (local --start-port P | remote --regions r1,r2 --instance-type T)`) and
// is grounded on orbas1-Synnergy's cmd/cli devnet/testnet subcommand shape,
// built with the same github.com/spf13/cobra the teacher's module graph
// already carries transitively via apps/cosmos.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "casino-setup",
		Short:         "generate casino chain node configs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(generateCmd())
	return root
}

type generateOptions struct {
	peers         int
	bootstrappers int
	outDir        string

	startPort int

	regions      string
	instanceType string
}

func generateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "write a peer config for each node in a new cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.peers, "peers", 0, "number of peer nodes")
	cmd.Flags().IntVar(&opts.bootstrappers, "bootstrappers", 0, "number of bootstrapper peers among them")
	cmd.Flags().StringVar(&opts.outDir, "out", "devnet", "output directory (must not already exist)")

	local := &cobra.Command{
		Use:   "local",
		Short: "assign sequential localhost ports starting at --start-port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.regions = ""
			return runGenerate(cmd, opts)
		},
	}
	local.Flags().IntVar(&opts.startPort, "start-port", 26656, "first ABCI port; each peer gets two consecutive ports")

	remote := &cobra.Command{
		Use:   "remote",
		Short: "distribute peers across cloud regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}
	remote.Flags().StringVar(&opts.regions, "regions", "", "comma-separated region names, assigned round-robin")
	remote.Flags().StringVar(&opts.instanceType, "instance-type", "", "cloud instance type (recorded in each config's comments, not enforced)")

	cmd.AddCommand(local, remote)
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	if opts.peers <= 0 {
		return fmt.Errorf("--peers must be > 0")
	}
	if opts.bootstrappers < 0 || opts.bootstrappers > opts.peers {
		return fmt.Errorf("--bootstrappers must be between 0 and --peers")
	}
	if _, err := os.Stat(opts.outDir); err == nil {
		return fmt.Errorf("output directory %q already exists", opts.outDir)
	} else if !os.IsNotExist(err) {
		return err
	}

	var regions []string
	if opts.regions != "" {
		regions = strings.Split(opts.regions, ",")
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return err
	}

	basePort := opts.startPort
	if basePort == 0 {
		basePort = 26656
	}

	var bootstrapperAddrs []string
	for i := 0; i < opts.bootstrappers; i++ {
		bootstrapperAddrs = append(bootstrapperAddrs, fmt.Sprintf("127.0.0.1:%d", basePort+2*i))
	}

	for i := 0; i < opts.peers; i++ {
		node := nodeConfig{
			Network: networkSection{
				Port:        basePort + 2*i,
				MetricsPort: basePort + 2*i + 1,
			},
			Concurrency: concurrencySection{
				WorkerThreads:        4,
				ExecutionConcurrency: 4,
				MailboxSize:          1024,
				DequeSize:            256,
			},
			Mempool: mempoolSection{
				MaxBacklog:       10000,
				MaxTransactions:  5000,
				StreamBufferSize: 256,
			},
			Storage: storageSection{
				BasePath:           filepath.Join(opts.outDir, fmt.Sprintf("node%d", i)),
				ItemsPerSection:    1000,
				BufferSizeBytes:    65536,
				ResizeThresholdPct: 80,
			},
			Consensus: consensusSection{
				LeaderTimeoutMs:       2000,
				NotarizationTimeoutMs: 4000,
				NullifyRetryMs:        1000,
				FetchTimeoutMs:        3000,
				ActivityTimeoutMs:     10000,
				SkipTimeoutMs:         5000,
			},
			RateLimits: rateLimitsSection{
				Pending: 100, Recovered: 100, Resolver: 100,
				Broadcaster: 100, Backfill: 100, Aggregation: 100,
				FetchPerPeer: 10,
			},
		}
		node.Network.Bootstrappers = bootstrapperAddrs
		if len(regions) > 0 {
			node.region = regions[i%len(regions)]
		}
		node.instanceType = opts.instanceType

		if err := writeNodeConfig(opts.outDir, i, node); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "generated %d node configs in %s\n", opts.peers, opts.outDir)
	return nil
}

// nodeConfig mirrors internal/config.Config's YAML shape closely enough to
// round-trip through internal/config.Load; region/instanceType are recorded
// as a leading comment since internal/config has no field for them (they
// describe provisioning, not node behavior).
type nodeConfig struct {
	Network     networkSection     `yaml:"network"`
	Concurrency concurrencySection `yaml:"concurrency"`
	Mempool     mempoolSection     `yaml:"mempool"`
	Storage     storageSection     `yaml:"storage"`
	Consensus   consensusSection   `yaml:"consensus"`
	RateLimits  rateLimitsSection  `yaml:"rate_limits"`

	region       string `yaml:"-"`
	instanceType string `yaml:"-"`
}

type networkSection struct {
	Port          int      `yaml:"port"`
	MetricsPort   int      `yaml:"metrics_port"`
	Bootstrappers []string `yaml:"bootstrappers"`
}

type concurrencySection struct {
	WorkerThreads        int `yaml:"worker_threads"`
	ExecutionConcurrency int `yaml:"execution_concurrency"`
	MailboxSize          int `yaml:"mailbox_size"`
	DequeSize            int `yaml:"deque_size"`
}

type mempoolSection struct {
	MaxBacklog       int `yaml:"max_backlog"`
	MaxTransactions  int `yaml:"max_transactions"`
	StreamBufferSize int `yaml:"stream_buffer_size"`
}

type storageSection struct {
	BasePath           string `yaml:"base_path"`
	ItemsPerSection    int    `yaml:"items_per_section"`
	BufferSizeBytes    int    `yaml:"buffer_size_bytes"`
	ResizeThresholdPct int    `yaml:"resize_threshold_pct"`
}

type consensusSection struct {
	LeaderTimeoutMs       int64 `yaml:"leader_timeout_ms"`
	NotarizationTimeoutMs int64 `yaml:"notarization_timeout_ms"`
	NullifyRetryMs        int64 `yaml:"nullify_retry_ms"`
	FetchTimeoutMs        int64 `yaml:"fetch_timeout_ms"`
	ActivityTimeoutMs     int64 `yaml:"activity_timeout_ms"`
	SkipTimeoutMs         int64 `yaml:"skip_timeout_ms"`
}

type rateLimitsSection struct {
	Pending      uint32 `yaml:"pending"`
	Recovered    uint32 `yaml:"recovered"`
	Resolver     uint32 `yaml:"resolver"`
	Broadcaster  uint32 `yaml:"broadcaster"`
	Backfill     uint32 `yaml:"backfill"`
	Aggregation  uint32 `yaml:"aggregation"`
	FetchPerPeer uint32 `yaml:"fetch_per_peer"`
}

func writeNodeConfig(outDir string, index int, node nodeConfig) error {
	if err := os.MkdirAll(node.Storage.BasePath, 0o755); err != nil {
		return err
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	var header string
	if node.region != "" {
		header += fmt.Sprintf("# region: %s\n", node.region)
	}
	if node.instanceType != "" {
		header += fmt.Sprintf("# instance_type: %s\n", node.instanceType)
	}
	path := filepath.Join(outDir, fmt.Sprintf("node%d.yaml", index))
	return os.WriteFile(path, append([]byte(header), out...), 0o644)
}
