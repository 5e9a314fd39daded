package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/automail-support/automail/internal/compose"
	"github.com/automail-support/automail/internal/config"
	"github.com/automail-support/automail/internal/email"
	"github.com/automail-support/automail/internal/generate"
	"github.com/automail-support/automail/internal/history"
	"github.com/automail-support/automail/internal/inbox"
	"github.com/automail-support/automail/internal/ledger"
	"github.com/automail-support/automail/internal/web"
	"github.com/automail-support/automail/internal/workflow"
)

var cfgFile string

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

func main() {
	// Secrets may come from a local .env during development.
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "automail",
		Short: "automail - Automated complaint mailbox assistant",
		Long: `automail monitors the Tata Motors customer-support mailbox, extracts
complaint details from unread emails, keeps the customer ledger up to
date, and replies to every customer with a drafted or fallback response.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.automail/config.yaml)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(onceCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(customersCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long:  "Create a new configuration file with mailbox and generation-service settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the polling loop",
		Long: `Poll the support mailbox for unread complaint emails and answer them.
Runs until interrupted; a cycle-level error pauses the loop briefly
before the next attempt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop()
		},
	}
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Process the current batch of unread emails and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce()
		},
	}
}

func statusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent processing history and statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of recent entries to show")

	return cmd
}

func customersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "customers",
		Short: "List the customer ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCustomers()
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local status dashboard",
		Long: `Start a local read-only web dashboard showing the customer ledger and
recent processing history. The server binds to localhost only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")

	return cmd
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("automail configuration setup")
	fmt.Println("============================")
	fmt.Println()

	cfg := &config.Config{}

	fmt.Println("Support mailbox (Gmail app password setup: https://support.google.com/accounts/answer/185833)")
	fmt.Println()
	cfg.Mailbox.Provider = "gmail"
	cfg.Mailbox.Address = prompt(reader, "Mailbox address: ")
	cfg.Mailbox.Password = prompt(reader, "App password (16-character code): ")

	fmt.Println()
	fmt.Println("Reply generation")
	fmt.Println()
	cfg.Generator.APIKey = prompt(reader, "Mistral API key (blank to use MISTRAL_API_KEY env): ")

	fmt.Println()
	cfg.Email.Provider = prompt(reader, "Outbound provider (smtp/resend/sendgrid) [smtp]: ")
	if cfg.Email.Provider == "" {
		cfg.Email.Provider = "smtp"
	}
	if cfg.Email.Provider != "smtp" {
		cfg.Email.APIKey = prompt(reader, "Provider API key: ")
		cfg.Email.From = prompt(reader, "From address: ")
	}

	configPath := resolveConfigPath()
	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to: %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit the config file if needed")
	fmt.Println("  2. Run 'automail once' to process the current batch")
	fmt.Println("  3. Run 'automail run' to start the polling loop")

	return nil
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	text, _ := reader.ReadString('\n')
	return strings.TrimSpace(text)
}

// buildProcessor loads config and wires the workflow collaborators.
func buildProcessor() (*config.Config, *workflow.Processor, *history.Store, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	led, err := ledger.Load(cfg.Storage.LedgerPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	log.Printf("Loaded %d customer records from %s", led.Len(), cfg.Storage.LedgerPath)

	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return nil, nil, nil, err
	}

	gen := generate.NewClient(cfg.Generator.APIKey, cfg.Generator.Model, cfg.Generator.MaxTokens)
	composer, err := compose.New(gen)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := history.NewStore(cfg.Storage.HistoryPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open history: %w", err)
	}

	saver := ledger.NewSaver(cfg.Storage.LedgerPath, cfg.Storage.MaxRetries)
	proc := workflow.NewProcessor(cfg.Email.From, led, saver, composer, sender, store)
	return cfg, proc, store, nil
}

// cycle connects to the mailbox, processes the unseen batch, and disconnects.
func cycle(ctx context.Context, cfg *config.Config, proc *workflow.Processor) (int, error) {
	monitor := inbox.NewMonitor(cfg.Mailbox)
	if err := monitor.Connect(ctx); err != nil {
		return 0, err
	}
	defer monitor.Disconnect()

	return proc.RunCycle(ctx, monitor)
}

func runOnce() error {
	cfg, proc, store, err := buildProcessor()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := cycle(context.Background(), cfg, proc)
	if err != nil {
		return err
	}
	log.Printf("Processed %d messages", n)
	return nil
}

func runLoop() error {
	cfg, proc, store, err := buildProcessor()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(cfg.Poll.IntervalSec) * time.Second
	errorPause := time.Duration(cfg.Poll.ErrorPauseSec) * time.Second

	log.Printf("Polling %s every %s", cfg.Mailbox.Address, interval)

	for {
		pause := interval
		if _, err := cycle(ctx, cfg, proc); err != nil {
			log.Printf("Error in polling cycle: %v", err)
			pause = errorPause
		}

		select {
		case <-ctx.Done():
			log.Printf("Shutting down")
			return nil
		case <-time.After(pause):
		}
	}
}

func runStatus(limit int) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := history.NewStore(cfg.Storage.HistoryPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return err
	}

	fmt.Println("Processed messages by branch:")
	total := 0
	for branch, count := range stats {
		fmt.Printf("  %-16s %d\n", branch, count)
		total += count
	}
	fmt.Printf("  %-16s %d\n", "total", total)
	fmt.Println()

	entries, err := store.Recent(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No messages processed yet.")
		return nil
	}

	fmt.Println("Recent messages:")
	for _, e := range entries {
		fmt.Printf("  %s  %-15s %-12s %-10s %s\n",
			e.ProcessedAt.Format("2006-01-02 15:04"), e.Branch, e.RegNo, e.Ticket, e.Sender)
	}
	return nil
}

func runCustomers() error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	led, err := ledger.Load(cfg.Storage.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	records := led.Records()
	if len(records) == 0 {
		fmt.Println("No customers in the ledger.")
		return nil
	}

	fmt.Printf("%-12s %-20s %-16s %-18s %-8s %s\n",
		"Reg No", "Name", "Car", "Area", "Status", "Problem")
	for _, r := range records {
		fmt.Printf("%-12s %-20s %-16s %-18s %-8s %s\n",
			r.RegNo, r.Name, r.CarName, r.Area, r.Status, r.ProblemArea)
	}
	return nil
}

func runServe(port int) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	led, err := ledger.Load(cfg.Storage.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	store, err := history.NewStore(cfg.Storage.HistoryPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	return web.New(led, store).ListenAndServe(port)
}
