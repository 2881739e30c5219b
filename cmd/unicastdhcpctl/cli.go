package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type CommandHandler func(ctx context.Context, c *CLI, args []string) error

type Command struct {
	Path        []string
	Description string
	Handler     CommandHandler
}

type CLI struct {
	health      healthpb.HealthClient
	serverAddr  string
	metricsAddr string
	httpClient  *http.Client
	out         io.Writer
	rl          *readline.Instance
	running     bool
	commands    []*Command
}

func NewCLI(health healthpb.HealthClient, serverAddr, metricsAddr string, out io.Writer) *CLI {
	return &CLI{
		health:      health,
		serverAddr:  serverAddr,
		metricsAddr: metricsAddr,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		out:         out,
		running:     true,
		commands:    defaultCommands(),
	}
}

func (c *CLI) Run() error {
	var err error
	c.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "unicastdhcp> ",
		HistoryFile:     os.ExpandEnv("$HOME/.unicastdhcp_history"),
		AutoComplete:    c.buildCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer c.rl.Close()

	c.printBanner()

	for c.running {
		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					break
				}
				continue
			} else if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := c.processCommand(line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	return nil
}

func (c *CLI) Stop() {
	c.running = false
}

func (c *CLI) printBanner() {
	fmt.Fprintln(c.out, "unicastdhcp interactive CLI")
	fmt.Fprintf(c.out, "Connected to: %s (metrics %s)\n", c.serverAddr, c.metricsAddr)
	fmt.Fprintln(c.out, "Type 'help' for available commands, 'exit' to quit")
	fmt.Fprintln(c.out)
}

func (c *CLI) processCommand(line string) error {
	if line == "exit" || line == "quit" {
		c.running = false
		return nil
	}

	return c.Exec(strings.Fields(line))
}

// Exec runs the longest command whose path prefixes words; the rest of the
// words are passed as arguments.
func (c *CLI) Exec(words []string) error {
	cmd, args := c.lookup(words)
	if cmd == nil {
		return fmt.Errorf("unknown command %q, type 'help'", strings.Join(words, " "))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return cmd.Handler(ctx, c, args)
}

func (c *CLI) lookup(words []string) (*Command, []string) {
	var best *Command
	for _, cmd := range c.commands {
		if len(cmd.Path) > len(words) {
			continue
		}
		match := true
		for i, p := range cmd.Path {
			if words[i] != p {
				match = false
				break
			}
		}
		if match && (best == nil || len(cmd.Path) > len(best.Path)) {
			best = cmd
		}
	}
	if best == nil {
		return nil, nil
	}
	return best, words[len(best.Path):]
}

func (c *CLI) buildCompleter() readline.AutoCompleter {
	roots := make(map[string][]readline.PrefixCompleterInterface)
	var order []string
	for _, cmd := range c.commands {
		root := cmd.Path[0]
		if _, ok := roots[root]; !ok {
			order = append(order, root)
			roots[root] = nil
		}
		if len(cmd.Path) > 1 {
			roots[root] = append(roots[root], readline.PcItem(strings.Join(cmd.Path[1:], " ")))
		}
	}
	sort.Strings(order)

	items := make([]readline.PrefixCompleterInterface, 0, len(order)+1)
	for _, root := range order {
		items = append(items, readline.PcItem(root, roots[root]...))
	}
	items = append(items, readline.PcItem("exit"))

	return readline.NewPrefixCompleter(items...)
}
