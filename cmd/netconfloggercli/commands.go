package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"github.com/winlab/netconflogger/pkg/config"
	"github.com/winlab/netconflogger/pkg/deviceevent"
	"golang.org/x/sync/errgroup"
)

func newParseCmd(opts *options) *cobra.Command {
	var tree bool

	cmd := &cobra.Command{
		Use:   "parse <raw event>",
		Short: "Extract the forwarded fields from a device event dump",
		Example: `  netconfloggercli parse 'DeviceEvent{time=2022-04-04T07:17:21.038Z, type=DEVICE_ADDED, subject=DefaultDevice{id=netconf:172.19.0.3:830, type=VIRTUAL}}'
  netconfloggercli parse --tree -o json '...'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			if tree {
				obj, err := deviceevent.Parse(raw)
				if err != nil {
					return describeMalformed(cmd.ErrOrStderr(), raw, err)
				}
				return render(out, opts.output, obj)
			}

			rec, err := deviceevent.Extract(raw)
			if err != nil {
				return describeMalformed(cmd.ErrOrStderr(), raw, err)
			}
			return render(out, opts.output, newRecordView(rec))
		},
	}

	cmd.Flags().BoolVar(&tree, "tree", false, "print the whole key=value tree instead of the forwarded fields")
	return cmd
}

// describeMalformed points at the offset where a delimiter was expected.
func describeMalformed(w io.Writer, raw string, err error) error {
	var merr *deviceevent.MalformedEventError
	if errors.As(err, &merr) {
		fmt.Fprintln(w, raw)
		fmt.Fprintln(w, strings.Repeat(" ", merr.Offset)+"^")
	}
	return err
}

func newSendCmd(opts *options) *cobra.Command {
	var (
		file        string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "send [raw event...]",
		Short: "Send device event dumps to netconfloggerd",
		Long: `Send device event dumps to the netconfloggerd ingress.

Each argument is one dump. With --file every non-empty line of the file is
one dump; lines are sent concurrently.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raws := args
			if file != "" {
				lines, err := readLines(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				raws = append(raws, lines...)
			}
			if len(raws) == 0 {
				return fmt.Errorf("nothing to send: pass events as arguments or use --file")
			}

			c := newClient(opts)

			var accepted atomic.Int64
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(concurrency, 1))

			for _, raw := range raws {
				g.Go(func() error {
					n, err := c.Send(ctx, raw)
					if err != nil {
						return err
					}
					accepted.Add(int64(n))
					return nil
				})
			}

			err := g.Wait()
			fmt.Fprintf(cmd.OutOrStdout(), "Accepted %d of %d events\n", accepted.Load(), len(raws))
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read events from file, one per line ('-' for stdin)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "concurrent requests when sending a file")
	return cmd
}

func readLines(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open events file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}
	return lines, nil
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show relay counters and the collector endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := newClient(opts).Status(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, status)
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration file commands",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a default configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default config written to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}
