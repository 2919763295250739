package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
	"github.com/vsc-eco/vsc-fixed-swap/services/devhost"
)

// Scenario is a scripted run against an in-process ledger.
type Scenario struct {
	Dust   string                `yaml:"dust"`
	Deploy schemas.DeployRequest `yaml:"deploy"`
	Fund   []schemas.FundRequest `yaml:"fund"`
	Steps  []ScenarioStep        `yaml:"steps"`
	Expect *ScenarioExpectation  `yaml:"expect"`
}

type ScenarioStep struct {
	Caller string `yaml:"caller"`
	Call   string `yaml:"call"`
	// Expect is "ok" or a substring of the revert error.
	Expect string `yaml:"expect"`
}

type ScenarioExpectation struct {
	ReserveA    *uint64 `yaml:"reserve_a"`
	ReserveB    *uint64 `yaml:"reserve_b"`
	TotalIssued *uint64 `yaml:"total_issued"`
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &sc, nil
}

// runScenario executes sc and reports every step to w. It fails on the
// first unmet expectation.
func runScenario(ctx context.Context, sc *Scenario, w io.Writer, opts *globalOptions) (swap.State, error) {
	cfg := devhost.DefaultConfig()
	if sc.Dust != "" {
		cfg.Contract.Dust = sc.Dust
	}
	swapCfg, err := cfg.SwapConfig()
	if err != nil {
		return swap.State{}, err
	}
	contract, err := swap.New(swapCfg)
	if err != nil {
		return swap.State{}, err
	}
	ledger, err := devhost.NewLedger(ctx, contract, devhost.NewMemoryStore(), devhost.LedgerOptions{
		Logger: opts.logger(io.Discard),
	})
	if err != nil {
		return swap.State{}, err
	}

	if _, err := ledger.Deploy(ctx, sc.Deploy); err != nil {
		return swap.State{}, err
	}
	for _, f := range sc.Fund {
		if _, err := ledger.Fund(ctx, f); err != nil {
			return swap.State{}, err
		}
	}

	for i, step := range sc.Steps {
		call, err := schemas.ParseCallFromMemo(step.Call)
		if err != nil {
			return swap.State{}, fmt.Errorf("step %d: %w", i+1, err)
		}
		receipt, err := ledger.Submit(ctx, &schemas.Transaction{
			SchemaVersion: schemas.CurrentVersion,
			Caller:        step.Caller,
			Nonce:         uint64(i),
			Calls:         []schemas.Call{*call},
		})
		if err != nil {
			return swap.State{}, fmt.Errorf("step %d: %w", i+1, err)
		}
		rec := receipt.Records[0]

		status := "ok"
		if !rec.OK {
			status = "reverted: " + rec.Error
		}
		fmt.Fprintf(w, "%3d  %-18s %-12s %s\n", i+1, step.Caller, rec.Method, status)

		switch {
		case step.Expect == "":
		case step.Expect == "ok" && !rec.OK:
			return swap.State{}, fmt.Errorf("step %d: expected ok, got %s", i+1, rec.Error)
		case step.Expect != "ok" && (rec.OK || !strings.Contains(rec.Error, step.Expect)):
			return swap.State{}, fmt.Errorf("step %d: expected error containing %q, got %q", i+1, step.Expect, rec.Error)
		}
	}

	st, err := ledger.State(ctx)
	if err != nil {
		return swap.State{}, err
	}
	if e := sc.Expect; e != nil {
		check := func(name string, want *uint64, got uint64) error {
			if want != nil && *want != got {
				return fmt.Errorf("expected %s %d, got %d", name, *want, got)
			}
			return nil
		}
		for _, err := range []error{
			check("reserve_a", e.ReserveA, st.ReserveA),
			check("reserve_b", e.ReserveB, st.ReserveB),
			check("total_issued", e.TotalIssued, st.TotalIssued),
		} {
			if err != nil {
				return st, err
			}
		}
	}
	return st, nil
}

func newSimulateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run a scripted scenario against an in-process host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(args[0])
			if err != nil {
				return err
			}
			st, err := runScenario(cmd.Context(), sc, cmd.OutOrStdout(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "final state:")
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}
