package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newShellCmd(out, errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell with history and completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Global flags given to "shell" apply to every line.
			var inherited []string
			cmd.InheritedFlags().Visit(func(f *pflag.Flag) {
				inherited = append(inherited, "--"+f.Name+"="+f.Value.String())
			})
			return runShell(cmd, out, errOut, inherited)
		},
	}
}

func runShell(cmd *cobra.Command, out, errOut io.Writer, inherited []string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "netconflogger> ",
		HistoryFile:       os.ExpandEnv("$HOME/.netconfloggercli_history"),
		AutoComplete:      completerFor(newRootCmd(out, errOut)),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            out,
		Stderr:            errOut,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(out, "netconflogger interactive shell")
	fmt.Fprintln(out, "Type 'help' for available commands, 'exit' to quit")

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		args, err := splitArgs(line)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			continue
		}
		if len(args) > 0 && args[0] == "shell" {
			fmt.Fprintln(errOut, "Error: already in the shell")
			continue
		}

		// A fresh tree per line so flag values do not leak between commands.
		root := newRootCmd(out, errOut)
		root.SetArgs(append(args, inherited...))
		if err := root.ExecuteContext(cmd.Context()); err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
		}
	}
}

func completerFor(root *cobra.Command) readline.AutoCompleter {
	return readline.NewPrefixCompleter(completionItems(root)...)
}

func completionItems(cmd *cobra.Command) []readline.PrefixCompleterInterface {
	var items []readline.PrefixCompleterInterface
	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "shell" || sub.Name() == "completion" {
			continue
		}
		items = append(items, readline.PcItem(sub.Name(), completionItems(sub)...))
	}
	return items
}

// splitArgs splits a shell line on whitespace, keeping single- or
// double-quoted runs together. Device event dumps contain spaces, so they are
// usually quoted.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}
