package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/trainerhq/dexd/internal/version"
	"github.com/trainerhq/dexd/pkg/client"
	"github.com/trainerhq/dexd/pkg/config"
)

func run(ctx context.Context) int {
	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "dexctl: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	var addr string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:           "dexctl [command ...]",
		Short:         "dexctl talks to a dexd server over the text protocol",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		Example: `
  # Interactive session
  dexctl --addr localhost:7654

  # One-shot command
  dexctl --addr localhost:7654 get trainer 1

  # Batch mode: blank lines and # comments are skipped
  dexctl < commands.txt
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			c, err := client.DialTimeout(addr, timeout)
			if err != nil {
				return err
			}
			defer c.Close()

			if len(args) > 0 {
				return runOne(cmd, c, strings.Join(args, " "))
			}
			return runSession(cmd, c)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&addr, "addr", "a", fmt.Sprintf("localhost:%d", config.DefaultTextPort), "dexd server address (host:port)")
	flags.DurationVar(&timeout, "timeout", 0, "per-command timeout (0 = wait forever)")

	cmd.AddCommand(newVersionCommand())
	return cmd
}

// runOne sends a single command and prints its response block.
func runOne(cmd *cobra.Command, c *client.Client, command string) error {
	resp, err := c.Do(command)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp)
	return nil
}

// runSession reads command lines from stdin until EOF or an explicit exit.
//
// Blank lines and lines starting with '#' are skipped so recorded command
// scripts can be replayed with comments in place. The prompt is only shown
// when stdin is a terminal.
func runSession(cmd *cobra.Command, c *client.Client) error {
	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()

	prompt := isTerminal(in)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	for {
		if prompt {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		resp, err := c.Do(line)
		if err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}
		fmt.Fprintln(out, resp)

		// The server ends the session only when exit is the sole token
		if fields := strings.Fields(line); len(fields) == 1 && fields[0] == "exit" {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	// EOF without an explicit exit: end the session cleanly so the server
	// answers with its farewell instead of seeing a dropped connection
	resp, err := c.Do("exit")
	if err != nil {
		return nil
	}
	fmt.Fprintln(out, resp)
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the dexctl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", version.Module(), version.Current())
			return err
		},
	}
	return cmd
}
