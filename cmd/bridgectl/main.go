package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/proxywire/internal/bridge"
	"github.com/danmuck/proxywire/internal/client"
	"github.com/danmuck/proxywire/internal/config"
	"github.com/danmuck/proxywire/internal/logging"
)

const usage = `usage: bridgectl [flags] <command> [args]

commands:
  serve                                   connect and keep the session up (default)
  ping                                    round-trip one heartbeat
  describe-domain NAME                    print a domain as JSON
  get-result DOMAIN WORKFLOW_ID [RUN_ID]  wait for a workflow result

flags:
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "bridgectl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("bridgectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "bridge config path (defaults plus PROXYWIRE_* env when empty)")
	overridePath := fs.String("override", "", "flat TOML override file applied after the config")
	timeout := fs.Duration("timeout", 10*time.Second, "deadline for one-shot commands, 0 waits forever")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadBridgeConfig(*configPath, *overridePath)
	if err != nil {
		return err
	}
	logging.ConfigureWith(cfg.Log.Logging())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, rest := "serve", []string(nil)
	if fs.NArg() > 0 {
		cmd, rest = fs.Arg(0), fs.Args()[1:]
	}
	switch cmd {
	case "serve":
		return bridge.NewService(cfg).Run(ctx)
	case "ping":
		return oneShot(ctx, cfg, *timeout, func(ctx context.Context, c *client.Client) error {
			rtt, err := c.Ping(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "pong rtt=%s\n", rtt.Round(time.Microsecond))
			return nil
		})
	case "describe-domain":
		if len(rest) != 1 {
			fs.Usage()
			return fmt.Errorf("%w: describe-domain NAME", errUsage)
		}
		return oneShot(ctx, cfg, *timeout, func(ctx context.Context, c *client.Client) error {
			info, err := c.DescribeDomain(ctx, rest[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		})
	case "get-result":
		if len(rest) < 2 || len(rest) > 3 {
			fs.Usage()
			return fmt.Errorf("%w: get-result DOMAIN WORKFLOW_ID [RUN_ID]", errUsage)
		}
		exec := client.WorkflowExecution{ID: rest[1]}
		if len(rest) == 3 {
			exec.RunID = rest[2]
		}
		return oneShot(ctx, cfg, *timeout, func(ctx context.Context, c *client.Client) error {
			result, err := c.GetWorkflowResult(ctx, rest[0], exec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(stdout, "%s\n", result)
			return err
		})
	default:
		fs.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// oneShot connects, runs fn under the command timeout and drains.
func oneShot(ctx context.Context, cfg config.BridgeConfig, timeout time.Duration, fn func(context.Context, *client.Client) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	svc := bridge.NewService(cfg)
	c, err := svc.Connect(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, c)
}
