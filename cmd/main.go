// Command evently is the terminal client for the Event Management &
// Ticketing System: sign in with email and password or through Google or
// GitHub, register, and inspect or end the stored session.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/evently/evently-auth/internal/config"
	"github.com/evently/evently-auth/internal/router"
	"github.com/evently/evently-auth/internal/tui"
)

// options are the parsed command line.
type options struct {
	command    string
	configPath string
	debug      bool
	help       bool

	email    string // login
	remember bool   // login
	provider string // social
	from     string // social
}

// errUsage marks argument errors; main prints help after them.
var errUsage = errors.New("usage error")

func parseArgs(args []string) (options, error) {
	opts := options{command: "app"}
	commandSet := false

	needValue := func(i int, flag string) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("%w: %s requires a value", errUsage, flag)
		}
		return args[i+1], nil
	}

	i := 0
	for i < len(args) {
		switch arg := args[i]; arg {
		case "-h", "--help":
			opts.help = true
			i++
		case "-d", "--debug":
			opts.debug = true
			i++
		case "-c", "--config":
			v, err := needValue(i, arg)
			if err != nil {
				return opts, err
			}
			opts.configPath = v
			i += 2
		case "--email":
			v, err := needValue(i, arg)
			if err != nil {
				return opts, err
			}
			opts.email = v
			i += 2
		case "--remember":
			opts.remember = true
			i++
		case "--from":
			v, err := needValue(i, arg)
			if err != nil {
				return opts, err
			}
			opts.from = v
			i += 2
		default:
			if strings.HasPrefix(arg, "-") {
				return opts, fmt.Errorf("%w: unknown option: %s", errUsage, arg)
			}
			switch {
			case !commandSet:
				opts.command = arg
				commandSet = true
			case opts.command == "social" && opts.provider == "":
				opts.provider = arg
			default:
				return opts, fmt.Errorf("%w: unexpected argument: %s", errUsage, arg)
			}
			i++
		}
	}

	switch opts.command {
	case "app", "login", "register", "whoami", "logout", "version", "help":
	case "social":
		if opts.provider == "" && !opts.help {
			return opts, fmt.Errorf("%w: social requires a provider (google or github)", errUsage)
		}
	default:
		return opts, fmt.Errorf("%w: unknown command: %s", errUsage, opts.command)
	}

	if (opts.email != "" || opts.remember) && opts.command != "login" {
		return opts, fmt.Errorf("%w: --email and --remember only apply to login", errUsage)
	}
	if opts.from != "" && opts.command != "social" {
		return opts, fmt.Errorf("%w: --from only applies to social", errUsage)
	}
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
		printHelp()
		os.Exit(2)
	}
	if opts.help || opts.command == "help" {
		printHelp()
		return
	}
	if opts.command == "version" {
		printVersion()
		return
	}

	config.LoadEnvFiles()
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if opts.debug {
		cfg.Log.Debug = true
	}

	logFile, err := openLogFile(cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer func() { _ = logFile.Close() }()
	}
	setupLogging(cfg.Log.Debug, logFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = a.execute(ctx)
	_ = a.Close()

	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, errQuit), errors.Is(err, tui.ErrNoInput):
	case errors.Is(err, errFailed):
		os.Exit(1)
	default:
		tui.PrintError(err.Error())
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("Event Management & Ticketing System: sign-in client")
	fmt.Println()
	fmt.Println("Usage: evently [COMMAND] [OPTIONS]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  app                     Interactive mode (default)")
	fmt.Println("  login                   Sign in with email and password")
	fmt.Println("  register                Create an account")
	fmt.Println("  social <google|github>  Sign in through an identity provider")
	fmt.Println("  whoami                  Show the signed-in user")
	fmt.Println("  logout                  Remove the stored session")
	fmt.Println("  version                 Print version information")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -c, --config FILE    Config file (default: ~/.config/evently/config.yaml)")
	fmt.Println("  -d, --debug          Enable debug logging")
	fmt.Println("  --email EMAIL        login: email address")
	fmt.Println("  --remember           login: ask the server for a long-lived session")
	fmt.Println("  --from PATH          social: screen to return to after signing in")
	fmt.Println("  -h, --help           Show this help")
	fmt.Println()
	fmt.Println("Screens (interactive mode):")
	for _, r := range router.Routes() {
		fmt.Printf("  %-24s %s\n", r.Path, r.Title)
	}
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Printf("  %-24s API base URL (default: %s)\n", config.EnvAPIURL, config.DefaultAPIBaseURL)
	fmt.Printf("  %-24s Google authorization URL\n", config.EnvGoogleAuthURL)
	fmt.Printf("  %-24s GitHub authorization URL\n", config.EnvGitHubAuthURL)
	fmt.Printf("  %-24s memory, file or sqlite\n", config.EnvSessionBackend)
	fmt.Printf("  %-24s Session file or database path\n", config.EnvSessionPath)
	fmt.Printf("  %-24s Loopback callback address (default: %s)\n", config.EnvCallbackAddr, config.DefaultCallbackAddr)
	fmt.Printf("  %-24s loopback or relay\n", config.EnvCallbackMode)
	fmt.Printf("  %-24s Relay base URL for relay mode\n", config.EnvRelayURL)
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  evently                                  Interactive mode")
	fmt.Println("  evently login --email ada@example.com    Prompt for the password only")
	fmt.Println("  evently social github --from /dashboard")
	fmt.Println("  evently whoami")
}
