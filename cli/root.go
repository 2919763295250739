package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	fixedswap "github.com/vsc-eco/vsc-fixed-swap/sdk/go"
)

type globalOptions struct {
	endpoint string
	graphql  string
	timeout  time.Duration
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "fixed-swap",
		Short:         "CLI for the fixed-rate swap contract",
		Long:          `Build, deploy, call, trace and simulate the 1 A = 100000 B swap contract`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "http://localhost:8081", "Development host URL")
	root.PersistentFlags().StringVar(&opts.graphql, "graphql", "", "GraphQL endpoint of a production host (trace only)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(
		newBuildCmd(),
		newDeployCmd(opts),
		newCallCmd(opts),
		newPayloadCmd(),
		newTraceCmd(opts),
		newStateCmd(opts),
		newSimulateCmd(opts),
	)
	return root
}

func (o *globalOptions) logger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	if o.verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.WarnLevel)
	}
	return l
}

func (o *globalOptions) client(cmd *cobra.Command) *fixedswap.Client {
	return fixedswap.NewClient(fixedswap.Config{
		Endpoint:        o.endpoint,
		GraphQLEndpoint: o.graphql,
		Timeout:         o.timeout,
		Logger:          o.logger(cmd.ErrOrStderr()),
	})
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
