package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/anythingboes/boes-chat/internal/client/reply"
	"github.com/anythingboes/boes-chat/internal/config"
	"github.com/anythingboes/boes-chat/internal/logging"
	chatservice "github.com/anythingboes/boes-chat/internal/service/chat"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type rootFlags struct {
	configPath string
	env        string
	baseURL    string
	timeout    string
	logLevel   string
	logFile    string

	// 非 nil 表示以 TUI 模式运行，日志先缓存到退出后再输出
	deferred *logging.DeferredWriter
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Anything Boes chat widget",
		Long: "Chat with the Anything Boes reply service. Runs a full-screen TUI when attached " +
			"to a terminal and reads one message per line otherwise.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			// 只有根命令在终端上才进入 TUI
			return flags.setupLogging(!cmd.HasParent() && isTerminal(cmd))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.newService(cmd)
			if err != nil {
				return err
			}

			if flags.deferred != nil {
				return runTUI(cmd.Context(), svc, flags.deferred)
			}
			return runLines(cmd.Context(), svc, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to a YAML client config file")
	pf.StringVar(&flags.env, "env", "", "reply service environment (production or development)")
	pf.StringVar(&flags.baseURL, "base-url", "", "reply service base URL, overrides --env")
	pf.StringVar(&flags.timeout, "timeout", "", "per-request timeout, e.g. 30s (0 disables)")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFile, "log-file", "", "append logs to this file")

	cmd.AddCommand(newSendCmd(flags))
	cmd.AddCommand(newWebCmd(flags))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chat %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// setupLogging installs the global logger. It must run before any component
// logger is created, since those copy the global logger.
func (f *rootFlags) setupLogging(tui bool) error {
	f.deferred = nil
	if tui {
		f.deferred = &logging.DeferredWriter{}
		return logging.Setup(f.logLevel, f.logFile, f.deferred)
	}
	return logging.Setup(f.logLevel, f.logFile, nil)
}

// clientConfig loads the config file and environment, then applies flags.
func (f *rootFlags) clientConfig(cmd *cobra.Command) (*config.ClientConfig, error) {
	cfg, err := config.LoadClient(f.configPath)
	if err != nil {
		return nil, err
	}

	flagSet := cmd.Flags()
	if flagSet.Changed("env") {
		env, err := config.ParseEnvironment(f.env)
		if err != nil {
			return nil, err
		}
		cfg.Environment = env
	}
	if flagSet.Changed("base-url") {
		cfg.BaseURL = f.baseURL
	}
	if flagSet.Changed("timeout") {
		timeout, err := parseTimeout(f.timeout)
		if err != nil {
			return nil, err
		}
		cfg.RequestTimeout = timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (f *rootFlags) newService(cmd *cobra.Command) (*chatservice.Service, error) {
	cfg, err := f.clientConfig(cmd)
	if err != nil {
		return nil, err
	}

	baseURL, err := cfg.ResolveBaseURL()
	if err != nil {
		return nil, err
	}

	client := reply.New(baseURL,
		reply.WithTimeout(cfg.RequestTimeout),
		reply.WithLogger(logging.Component("reply")),
	)

	logger := logging.Component("chat")
	logger.Debug().
		Str("environment", string(cfg.Environment)).
		Str("base_url", baseURL).
		Dur("timeout", cfg.RequestTimeout).
		Msg("chat session ready")

	return chatservice.NewService(client, chatservice.WithLogger(logger)), nil
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func execute(ctx context.Context, cmd *cobra.Command) int {
	if err := cmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newRootCmd())
	_ = logging.Close()
	stop()
	os.Exit(code)
}
