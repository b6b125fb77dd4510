package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/learnhub/internal/api"
	"github.com/robby/learnhub/internal/auth"
	"github.com/robby/learnhub/internal/config"
	"github.com/robby/learnhub/internal/logging"
	"github.com/robby/learnhub/internal/refdata"
	"github.com/robby/learnhub/internal/store"
	"github.com/robby/learnhub/internal/tui"
	"github.com/robby/learnhub/internal/wizard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// CLI flags
	configFlag   string
	apiURLFlag   string
	logLevelFlag string
	variantFlag  string
	emailFlag    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "learnhub",
		Short: "Terminal client for the LearnHub learning platform",
		Long: `learnhub is a terminal client for the LearnHub learning platform.

  learnhub apply   walks an applicant through the cohort application
  learnhub admin   opens the admin dashboard for cohorts, tracks, people,
                   stream posts and tasks

Configuration is read from learnhub.yaml (working directory or user config
directory), a .env file and LEARNHUB_* environment variables.

Authentication:
  1. Sign in from the admin dashboard (the token is stored in token_file)
  2. Environment variable: Set LEARNHUB_TOKEN`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to a config file. Defaults to learnhub.yaml.")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Backend base URL. Overrides api_url.")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error or off. Overrides log_level.")

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply to the current cohort",
		Args:  cobra.NoArgs,
		RunE:  runApply,
	}
	applyCmd.Flags().StringVar(&variantFlag, "variant", "apply", "Form variant: apply (motivation) or applicant (career goals).")

	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Open the admin dashboard",
		Args:  cobra.NoArgs,
		RunE:  runAdmin,
	}
	adminCmd.Flags().StringVar(&emailFlag, "email", "", "Pre-fill the sign-in email.")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "learnhub %s\n", version)
		},
	}

	rootCmd.AddCommand(applyCmd, adminCmd, logoutCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every subcommand needs.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	session *auth.Session
	client  *api.Client
}

// setup builds the shared dependencies. The stored token is only loaded for
// commands that act as an admin.
func setup(loadToken bool) (*env, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if apiURLFlag != "" {
		cfg.APIURL = apiURLFlag
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --api-url: %w", err)
		}
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	session := auth.NewSession(&auth.FileProvider{Path: cfg.TokenFile}, &auth.EnvProvider{})
	if loadToken {
		if err := session.Load(); err != nil && !errors.Is(err, auth.ErrNoToken) {
			logger.Warn("failed to load session token", zap.Error(err))
		}
	}

	client := api.New(cfg.APIURL, session,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(logger),
	)
	return &env{cfg: cfg, logger: logger, session: session, client: client}, nil
}

func runApply(cmd *cobra.Command, args []string) error {
	variant, err := wizard.ParseVariant(variantFlag)
	if err != nil {
		return err
	}
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	data, err := refdata.Load()
	if err != nil {
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	// The application form is public; a 401 here never ends a session
	e.session.SetRoute(variant.Route())

	app := tui.NewApplyModel(context.Background(), tui.ApplyConfig{
		Client:     e.client,
		Variant:    variant,
		Data:       data,
		ResetDelay: e.cfg.SuccessResetDelay,
		Logger:     e.logger.Named("apply"),
	})

	e.logger.Info("starting applicant wizard", zap.String("variant", variant.String()), zap.String("api_url", e.cfg.APIURL))
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

func runAdmin(cmd *cobra.Command, args []string) error {
	e, err := setup(true)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	app := tui.NewAppModel(context.Background(), tui.AppConfig{
		Client:         e.client,
		Session:        e.session,
		Store:          store.New(),
		Logger:         e.logger.Named("admin"),
		Email:          emailFlag,
		MaxAttachments: e.cfg.MaxAttachments,
	})

	e.logger.Info("starting admin dashboard", zap.String("api_url", e.cfg.APIURL), zap.Stringer("session", e.session.State()))
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	if err := e.session.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	if os.Getenv(auth.TokenEnvVar) != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is still set in the environment.\n", auth.TokenEnvVar)
	}
	return nil
}
