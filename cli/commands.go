package main

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
)

func newDeployCmd(opts *globalOptions) *cobra.Command {
	var (
		req      schemas.DeployRequest
		external string
		wasm     string
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy and initialize the contract",
		Long: `Deploy initializes the contract on a development host. With --exec the
given deployer command is run instead, with the wasm path and the
initialization arguments appended, e.g.
--exec "vsc-contract-deploy --network testnet" --reserve-a 1
runs "vsc-contract-deploy --network testnet fixed-swap.wasm 1,0".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("exec") {
				name, args, err := deployerCommand(external, wasm, req)
				if err != nil {
					return err
				}
				c := exec.CommandContext(cmd.Context(), name, args...)
				c.Stdout = cmd.OutOrStdout()
				c.Stderr = cmd.ErrOrStderr()
				if err := c.Run(); err != nil {
					return fmt.Errorf("deployer command: %w", err)
				}
				return nil
			}

			receipt, err := opts.client(cmd).Deploy(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deployed by %s in %s (height %d)\n", req.Deployer, receipt.TxID, receipt.Height)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Deployer, "deployer", "", "Deployer account")
	cmd.Flags().Uint64Var(&req.ReserveA, "reserve-a", 0, "Seed reserve of token A")
	cmd.Flags().Uint64Var(&req.ReserveB, "reserve-b", 0, "Seed reserve of token B")
	cmd.Flags().StringVar(&external, "exec", "", "External deployer command")
	cmd.Flags().StringVar(&wasm, "wasm", "fixed-swap.wasm", "Wasm module for --exec")
	return cmd
}

// deployerCommand splits the external deployer command line and appends the
// wasm path and the "reserveA,reserveB" initialization arguments.
func deployerCommand(external, wasm string, req schemas.DeployRequest) (string, []string, error) {
	fields := strings.Fields(external)
	if len(fields) == 0 {
		return "", nil, errors.New("--exec needs a deployer command")
	}
	args := append(fields[1:], wasm, swap.FormatArgs([]uint64{req.ReserveA, req.ReserveB}))
	return fields[0], args, nil
}

func newCallCmd(opts *globalOptions) *cobra.Command {
	var (
		caller string
		nonce  uint64
	)
	cmd := &cobra.Command{
		Use:   "call <memo>",
		Short: "Submit one contract call",
		Long: `The memo is JSON or query form, e.g.
  fixed-swap call --caller hive:bob 'op=42&transfer=tokB:250000'
  fixed-swap call --caller hive:bob '{"opcode":102}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := schemas.ParseCallFromMemo(args[0])
			if err != nil {
				return err
			}
			rec, err := opts.client(cmd).Call(cmd.Context(), caller, nonce, *call)
			if rec != nil {
				if perr := printJSON(cmd.OutOrStdout(), rec); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "Calling account")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "Transaction nonce")
	cmd.MarkFlagRequired("caller")
	return cmd
}

func newTraceCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <txid> <vout>",
		Short: "Show the execution record of a past call",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vout, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return errors.New("vout must be an unsigned integer")
			}
			client := opts.client(cmd)
			if opts.graphql != "" {
				rec, err := client.RemoteTrace(cmd.Context(), args[0], uint32(vout))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			}
			rec, err := client.Trace(cmd.Context(), args[0], uint32(vout))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newStateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the committed contract state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := opts.client(cmd).State(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}

func newPayloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "payload <memo>",
		Short: "Print the wasm execute payload for a call",
		Long: `Payload converts a memo into the "opcode,arg1,arg2" string passed to the
contract's execute export. Attached transfers travel outside the payload.
  fixed-swap payload 'op=78&args=5,6'   # 78,5,6`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := schemas.ParseCallFromMemo(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), swap.EncodePayload(swap.Opcode(call.Opcode), call.Args))
			return nil
		},
	}
}
