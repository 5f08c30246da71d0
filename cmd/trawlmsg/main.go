// Package main implements trawlmsg, the command-line control client for
// the trawld resource configuration daemon. Every daemon operation is
// reachable as a subcommand over NATS request/reply.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sandptel/trawl/natsclient"
	"github.com/sandptel/trawl/service"
)

// Version of the control client
const Version = "0.1.0"

type cliOptions struct {
	natsURL string
	prefix  string
	timeout time.Duration
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "trawlmsg: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &cliOptions{}

	flag.StringVar(&opts.natsURL, "nats-url",
		getEnv("TRAWL_NATS_URL", "nats://localhost:4222"),
		"NATS server URL (env: TRAWL_NATS_URL)")
	flag.StringVar(&opts.prefix, "prefix",
		getEnv("TRAWL_SUBJECT_PREFIX", "trawl"),
		"Daemon subject prefix (env: TRAWL_SUBJECT_PREFIX)")
	flag.DurationVar(&opts.timeout, "timeout", service.DefaultRequestTimeout,
		"Request timeout")
	showVersion := flag.Bool("version", false, "Show version information")

	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("trawlmsg version %s\n", Version)
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("no command given")
	}

	client, err := natsclient.NewClient(opts.natsURL,
		natsclient.WithClientName("trawlmsg"),
		natsclient.WithMaxReconnects(0),
	)
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	defer func() { _ = client.Close(context.Background()) }()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", opts.natsURL, err)
	}
	if err := client.WaitForConnection(ctx); err != nil {
		return fmt.Errorf("connection not ready: %w", err)
	}

	return dispatch(ctx, client, opts, args[0], args[1:])
}

// dispatch routes a subcommand to its daemon operation
func dispatch(ctx context.Context, client *natsclient.Client, opts *cliOptions, command string, args []string) error {
	switch command {
	case "load", "merge":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <file>", command)
		}
		suffix := service.SuffixCmdLoad
		if command == "merge" {
			suffix = service.SuffixCmdMerge
		}
		return command0(ctx, client, opts, suffix, service.LoadRequest{Path: args[0]})

	case "loadcpp", "mergecpp":
		if len(args) < 1 || len(args) > 3 {
			return fmt.Errorf("usage: %s <file> [command] [args]", command)
		}
		req := service.LoadCppRequest{Path: args[0]}
		if len(args) > 1 {
			req.Command = args[1]
		}
		if len(args) > 2 {
			req.Args = args[2]
		}
		suffix := service.SuffixCmdLoadCpp
		if command == "mergecpp" {
			suffix = service.SuffixCmdMergeCpp
		}
		return command0(ctx, client, opts, suffix, req)

	case "set", "add":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <key> <value>", command)
		}
		suffix := service.SuffixCmdSet
		if command == "add" {
			suffix = service.SuffixCmdAdd
		}
		return command0(ctx, client, opts, suffix, service.SetRequest{Key: args[0], Value: args[1]})

	case "removeone":
		if len(args) != 1 {
			return fmt.Errorf("usage: removeone <key>")
		}
		data, err := request(ctx, client, opts, service.SuffixCmdRemoveOne, service.RemoveRequest{Key: args[0]})
		if err != nil {
			return err
		}
		if pair, ok := data.(map[string]any); ok {
			fmt.Printf("%v :\t%v\n", pair["key"], pair["value"])
		}
		return nil

	case "removeall":
		return command0(ctx, client, opts, service.SuffixCmdRemoveAll, struct{}{})

	case "query":
		match := ""
		if len(args) > 0 {
			match = args[0]
		}
		data, err := request(ctx, client, opts, service.SuffixQueryMatch, service.MatchRequest{Match: match})
		if err != nil {
			return err
		}
		if listing, ok := data.(string); ok && listing != "" {
			fmt.Println(listing)
		}
		return nil

	case "get":
		if len(args) != 1 {
			return fmt.Errorf("usage: get <key>")
		}
		data, err := request(ctx, client, opts, service.SuffixQueryGet, service.GetRequest{Key: args[0]})
		if err != nil {
			return err
		}
		if value, ok := data.(string); ok {
			fmt.Println(value)
		}
		return nil

	case "resources":
		data, err := request(ctx, client, opts, service.SuffixQueryResources, struct{}{})
		if err != nil {
			return err
		}
		printSnapshot(data)
		return nil

	case "watch":
		return watch(client, opts)

	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// command0 performs a request whose success carries no payload
func command0(ctx context.Context, client *natsclient.Client, opts *cliOptions, suffix string, payload any) error {
	_, err := request(ctx, client, opts, suffix, payload)
	return err
}

// request performs one round trip and unwraps the response envelope
func request(ctx context.Context, client *natsclient.Client, opts *cliOptions, suffix string, payload any) (any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	subject := opts.prefix + "." + suffix
	msg, err := client.Request(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", subject, err)
	}

	var resp service.OpResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s", resp.Error)
	}
	return resp.Data, nil
}

// printSnapshot renders the full table in key order
func printSnapshot(data any) {
	snapshot, ok := data.(map[string]any)
	if !ok {
		return
	}

	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Printf("%s :\t%v\n", key, snapshot[key])
	}
}

// watch subscribes to change events and prints one line per event
// until interrupted
func watch(client *natsclient.Client, opts *cliOptions) error {
	subject := opts.prefix + "." + service.SuffixEventResourcesChanged

	events := make(chan struct{}, 16)
	if err := client.Subscribe(subject, func(_ *nats.Msg) {
		select {
		case events <- struct{}{}:
		default:
		}
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	fmt.Printf("watching %s (ctrl-c to stop)\n", subject)

	sigCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for {
		select {
		case <-sigCtx.Done():
			return nil
		case <-events:
			fmt.Printf("%s resources changed\n", time.Now().Format(time.RFC3339))
		}
	}
}

func printUsage() {
	_, _ = fmt.Fprintf(os.Stderr, `trawlmsg - control client for the trawld resource daemon

Usage: %s [options] <command> [args]

Commands:
  load <file>                     Load a resource file, keep existing keys
  loadcpp <file> [cmd] [args]     Load with an explicit preprocessor
  merge <file>                    Merge a resource file, overwrite existing keys
  mergecpp <file> [cmd] [args]    Merge with an explicit preprocessor
  set <key> <value>               Set a resource
  add <key> <value>               Add a resource, never overwrite
  removeone <key>                 Remove a resource, print the removed pair
  removeall                       Clear the resource table
  query [match]                   List resources matching a substring
  get <key>                       Print one resource value
  resources                       Print the full table
  watch                           Print a line whenever resources change

Options:
`, os.Args[0])
	flag.PrintDefaults()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
