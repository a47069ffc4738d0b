package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/winlab/netconflogger/pkg/version"
)

type options struct {
	ingressURL string
	apiURL     string
	output     string
	timeout    time.Duration
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "netconfloggercli",
		Short: "netconflogger operator CLI",
		Long: `netconfloggercli talks to a running netconfloggerd.

Send device event dumps to its ingress, check relay status, parse dumps
locally, and write a starter configuration.`,
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&opts.ingressURL, "ingress", "http://127.0.0.1:8181", "netconfloggerd ingress URL")
	root.PersistentFlags().StringVar(&opts.apiURL, "api", "http://127.0.0.1:8080", "netconfloggerd API URL")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", string(FormatCLI), "output format: cli, json, yaml")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(
		newParseCmd(opts),
		newSendCmd(opts),
		newStatusCmd(opts),
		newConfigCmd(),
		newShellCmd(out, errOut),
	)

	return root
}
