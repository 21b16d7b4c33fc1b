package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harunnryd/tooloop/pkg/agent"
	"github.com/harunnryd/tooloop/pkg/config"
	"github.com/harunnryd/tooloop/pkg/diagnose"
	"github.com/harunnryd/tooloop/pkg/errorsx"
	"github.com/harunnryd/tooloop/pkg/logging"
	"github.com/harunnryd/tooloop/pkg/providers/ollama"
	"github.com/harunnryd/tooloop/pkg/runner"
	"github.com/harunnryd/tooloop/pkg/session"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "tooloop",
		Short:         "Chat with a local Ollama model that can call tools",
		Long:          "tooloop runs an interactive chat against a local Ollama model. The model can look up the weather, do arithmetic, fetch stock quotes and resolve ticker symbols.",
		Version:       runner.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "override log_level (debug|info|warn|error)")

	cmd.AddCommand(newDoctorCommand(opts))
	return cmd
}

func newDoctorCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the Ollama connection, chat endpoint and tool-calling support",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(opts, cmd.ErrOrStderr())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "startup failed:", err)
				return err
			}
			defer a.close()
			_, err = diagnose.Run(cmd.Context(), diagnose.Config{
				Client:  a.client,
				Out:     cmd.OutOrStdout(),
				NoColor: color.NoColor,
			})
			return err
		},
	}
}

func runChat(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()
	a, err := bootstrap(opts, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "startup failed:", err)
		return err
	}
	defer a.close()

	if err := a.checkModel(ctx); err != nil {
		fmt.Fprintln(stderr, errorsx.UserMessage(err))
		return err
	}

	loop, err := agent.New(agent.Config{
		Client:        a.client,
		Tools:         a.executor,
		SystemPrompt:  config.LoadSystemPrompt(a.cfg.SystemPromptPath, a.logger),
		MaxIterations: a.cfg.Agent.MaxIterations,
		Logger:        logging.NewComponentLogger(a.logger, "agent"),
		Observer:      a.observer,
		Listeners:     []agent.StateListener{agent.LogListener{Logger: logging.NewComponentLogger(a.logger, "agent")}},
	})
	if err != nil {
		return err
	}
	sess, err := session.New(session.Config{
		In:      cmd.InOrStdin(),
		Out:     cmd.OutOrStdout(),
		Runner:  loop,
		Logger:  logging.NewComponentLogger(a.logger, "session"),
		NoColor: color.NoColor,
	})
	if err != nil {
		return err
	}

	lr := runner.NewLifecycleRunner(sess.Run, a.drainer(), runner.Hooks{
		OnStart: func() {
			runner.PrintBanner(cmd.OutOrStdout(), "TOOLOOP", a.client.Model(), !color.NoColor)
			a.logger.Info("session_started", "model", a.client.Model(), "base_url", a.client.BaseURL())
		},
		OnStop: func() {
			a.logger.Info("session_stopped")
		},
	}, 5*time.Second)
	return lr.Run(ctx)
}

var _ diagnose.Lister = (*ollama.Client)(nil)
