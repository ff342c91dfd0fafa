package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ironsheep/formphoto-mcp/internal/config"
	"github.com/ironsheep/formphoto-mcp/internal/pipeline"
	"github.com/ironsheep/formphoto-mcp/internal/server"
	"github.com/ironsheep/formphoto-mcp/internal/watcher"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func printHelp() {
	fmt.Println("formphoto-mcp - prepare photos and signatures for online forms")
	fmt.Println()
	fmt.Println("Usage: formphoto-mcp [--config path] [watch]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  (none)           Serve MCP over stdin/stdout")
	fmt.Println("  watch            Prepare images dropped into watch.input_dir")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config path    YAML configuration file")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  FORMPHOTO_CONFIG=path        Configuration file when --config is not given")
	fmt.Println("  FORMPHOTO_LOG_LEVEL=debug    Enable debug logging")
}

type options struct {
	configPath string
	command    string
}

func parseArgs(args []string) (options, error) {
	var opts options
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config" || arg == "-c":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%s requires a path", arg)
			}
			i++
			opts.configPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			opts.configPath = strings.TrimPrefix(arg, "--config=")
		case arg == "watch" && opts.command == "":
			opts.command = arg
		default:
			return opts, fmt.Errorf("unknown argument: %s", arg)
		}
	}
	return opts, nil
}

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("formphoto-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("%v (see --help)", err)
	}

	if os.Getenv("FORMPHOTO_LOG_LEVEL") == "debug" {
		log.Printf("formphoto-mcp v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		pipeline.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := config.Resolve(opts.configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	proc := pipeline.New()

	if opts.command == "watch" {
		if err := runWatch(cfg, proc); err != nil {
			log.Fatalf("Watch error: %v", err)
		}
		return
	}

	srv := server.New(cfg, proc, Version)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func runWatch(cfg *config.Config, proc *pipeline.Processor) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.NewWatcher(cfg, proc)
	if err != nil {
		return err
	}
	if _, err := w.ProcessExisting(ctx); err != nil {
		w.Stop()
		return err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return err
	}

	<-ctx.Done()
	log.Printf("Shutting down")
	return w.Stop()
}
