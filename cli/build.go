package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
)

type buildOptions struct {
	tinygo string
	out    string
	pkg    string
	tokenA string
	tokenB string
	dust   string
	dryRun bool
}

func (o buildOptions) args() ([]string, error) {
	if _, err := swap.ParseDustPolicy(o.dust); err != nil {
		return nil, err
	}
	cfg := swap.Config{TokenA: swap.TokenID(o.tokenA), TokenB: swap.TokenID(o.tokenB)}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ldflags := fmt.Sprintf("-X main.tokenA=%s -X main.tokenB=%s -X main.dust=%s", o.tokenA, o.tokenB, o.dust)
	return []string{
		"build",
		"-o", o.out,
		"-target", "wasm-unknown",
		"-gc", "custom",
		"-scheduler", "none",
		"-panic", "trap",
		"-no-debug",
		"-ldflags", ldflags,
		o.pkg,
	}, nil
}

func newBuildCmd() *cobra.Command {
	opts := buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the contract to wasm with TinyGo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := opts.args()
			if err != nil {
				return err
			}
			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), opts.tinygo+" "+strings.Join(args, " "))
				return nil
			}

			c := exec.CommandContext(cmd.Context(), opts.tinygo, args...)
			c.Stdout = cmd.OutOrStdout()
			c.Stderr = cmd.ErrOrStderr()
			if err := c.Run(); err != nil {
				return fmt.Errorf("tinygo build: %w", err)
			}
			info, err := os.Stat(opts.out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Built %s (%d bytes)\n", opts.out, info.Size())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.tinygo, "tinygo", "tinygo", "TinyGo binary")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "fixed-swap.wasm", "Output file")
	cmd.Flags().StringVar(&opts.pkg, "pkg", "./contracts/fixed-swap", "Contract package")
	cmd.Flags().StringVar(&opts.tokenA, "token-a", string(swap.DefaultConfig.TokenA), "Token A id")
	cmd.Flags().StringVar(&opts.tokenB, "token-b", string(swap.DefaultConfig.TokenB), "Token B id")
	cmd.Flags().StringVar(&opts.dust, "dust", "refund", "Dust policy: refund or reject")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the TinyGo command instead of running it")
	return cmd
}
