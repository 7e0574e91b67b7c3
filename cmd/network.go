package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3deploy/internal/config"
	"github.com/Mohsinsiddi/w3deploy/internal/provider"
	"github.com/Mohsinsiddi/w3deploy/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var checkAll bool

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Inspect and check networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print(networkTable(cfg).Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d networks total", len(cfg.Networks))))
		return nil
	},
}

var networkCheckCmd = &cobra.Command{
	Use:   "check [network...]",
	Short: "Connect to networks and compare their network id",
	Long: `Build each network's provider, connect to its endpoint and query
net_version, chain id, latest block, gas price and the deployer balance.
Each check is bounded by the network's check timeout.

Examples:
  w3deploy network check kovan
  w3deploy network check --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := args
		if checkAll {
			names = cfg.NetworkNames()
		}
		if len(names) == 0 {
			return fmt.Errorf("name at least one network or pass --all")
		}
		seen := make(map[string]bool, len(names))
		unique := names[:0:0]
		for _, name := range names {
			n, err := cfg.Network(name)
			if err != nil {
				return fmt.Errorf("%w; run `w3deploy network list` to see all networks", err)
			}
			if !seen[n.Name] {
				seen[n.Name] = true
				unique = append(unique, n.Name)
			}
		}
		names = unique

		var results []checkResult
		if isTerminal(os.Stdout) {
			var err error
			if results, err = runCheckTUI(cmd.Context(), cfg, names); err != nil {
				return err
			}
		} else {
			results = checkNetworks(cmd.Context(), cfg, names, nil)
			for _, r := range results {
				fmt.Println(renderCheck(r))
			}
		}

		failed := 0
		for _, r := range results {
			if !r.passed() {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d network checks failed", failed, len(results))
		}
		return nil
	},
}

type checkResult struct {
	Name        string
	Network     *config.Network
	Status      *provider.Status
	FromManaged bool
	Err         error
	Elapsed     time.Duration
}

func (r checkResult) passed() bool { return r.Err == nil && r.FromManaged }

// summary is the one-line outcome shown in the live view.
func (r checkResult) summary() string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case !r.FromManaged:
		return "from account is not held by the provider"
	case r.Status != nil:
		return fmt.Sprintf("chain %s · block %d · %s", r.Status.ChainID, r.Status.BlockNumber, ui.Ether(r.Status.Balance))
	}
	return "reachable"
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// checkNetworks checks every named network concurrently. Results keep the
// order of names. onResult, when set, is called from each check goroutine
// as soon as that network is done.
func checkNetworks(ctx context.Context, c *config.Config, names []string, onResult func(checkResult)) []checkResult {
	results := make([]checkResult, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			start := time.Now()
			r := checkNetwork(ctx, c, name)
			r.Name = name
			r.Elapsed = time.Since(start)
			results[i] = r
			if onResult != nil {
				onResult(r)
			}
		}(i, name)
	}
	wg.Wait()

	return results
}

// runCheckTUI runs the checks behind a live Bubble Tea view. Quitting the
// view early cancels the checks still in flight.
func runCheckTUI(ctx context.Context, c *config.Config, names []string) ([]checkResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows := make([]ui.CheckRow, len(names))
	for i, name := range names {
		rows[i] = ui.CheckRow{Network: name}
		if n, err := c.Network(name); err == nil {
			rows[i].Endpoint = n.Endpoint.Redacted()
		}
	}

	prog := tea.NewProgram(ui.NewCheckModel(rows), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))

	done := make(chan []checkResult, 1)
	go func() {
		done <- checkNetworks(ctx, c, names, func(r checkResult) {
			prog.Send(checkMsg(r))
		})
	}()

	if _, err := prog.Run(); err != nil {
		return nil, fmt.Errorf("network check view: %w", err)
	}
	cancel()
	return <-done, nil
}

func checkMsg(r checkResult) ui.CheckResultMsg {
	msg := ui.CheckResultMsg{Network: r.Name, Passed: r.passed(), Detail: r.summary(), Latency: r.Elapsed}
	if r.Status != nil {
		msg.Latency = r.Status.Latency
	}
	return msg
}

func checkNetwork(ctx context.Context, c *config.Config, name string) checkResult {
	n, err := c.Network(name)
	if err != nil {
		return checkResult{Err: err}
	}
	r := checkResult{Network: n}

	w, err := n.NewProvider()
	if err != nil {
		r.Err = fmt.Errorf("building provider: %w", err)
		return r
	}
	defer w.Close()

	r.FromManaged = common.IsHexAddress(n.From) && w.Has(common.HexToAddress(n.From))

	logger.Debug("checking network",
		"network", n.Name,
		"scheme", n.Endpoint.Scheme(),
		"endpoint", n.Endpoint.Redacted(),
		"timeout", n.CheckTimeout())
	r.Status, r.Err = w.Check(ctx, n.NetworkID, n.CheckTimeout())
	return r
}

func renderCheck(r checkResult) string {
	if r.Network == nil {
		return ui.Err(r.Err.Error())
	}
	name := r.Network.Name

	pairs := [][2]string{
		{"network id", r.Network.NetworkID},
		{"endpoint", r.Network.Endpoint.Redacted()},
		{"from", valueOr(r.Network.From, "—")},
		{"from managed", ui.YesNo(r.FromManaged)},
	}
	if st := r.Status; st != nil {
		pairs = append(pairs,
			[2]string{"node network id", st.NetworkID},
			[2]string{"chain id", st.ChainID.String()},
			[2]string{"latest block", strconv.FormatUint(st.BlockNumber, 10)},
			[2]string{"node gas price", ui.Gwei(st.GasPrice)},
			[2]string{"balance", ui.Ether(st.Balance)},
			[2]string{"latency", st.Latency.String()},
		)
	}

	var sb strings.Builder
	sb.WriteString(ui.KeyValueBlock(name, pairs))
	sb.WriteString("\n")
	switch {
	case r.Err != nil:
		sb.WriteString(ui.Err(fmt.Sprintf("%s: %v", name, r.Err)))
	case !r.FromManaged:
		sb.WriteString(ui.Err(fmt.Sprintf("%s: from account is not held by the provider", name)))
	default:
		sb.WriteString(ui.Success(fmt.Sprintf("%s reachable", name)))
	}
	return sb.String()
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func init() {
	networkCheckCmd.Flags().BoolVar(&checkAll, "all", false, "check every configured network")
	networkCmd.AddCommand(networkListCmd, networkCheckCmd)
}
