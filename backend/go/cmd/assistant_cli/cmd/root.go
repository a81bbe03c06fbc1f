package cmd

import (
	"MultiAI_Assistant/backend/go/internal/assistant"
	"MultiAI_Assistant/backend/go/internal/config"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once the root command has loaded the config.
type app struct {
	cfgFile  string
	logLevel string
	clients  *assistant.Clients
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "assistant-cli",
		Short:         "A CLI client for the Multi AI Assistant backend",
		Long:          `A command-line interface for uploading documents, asking questions about them, chatting and working with CVs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(a.cfgFile)
			if err != nil {
				return err
			}
			level := cfg.Logger.Level
			if a.logLevel != "" {
				level = a.logLevel
			}
			// 日志写到 stderr，stdout 只输出结果
			log := logger.NewWithWriter("AssistantCLI", cmd.ErrOrStderr(), logger.ParseLevel(level))
			a.clients, err = assistant.Build(cmd.Context(), cfg, log)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.clients == nil {
				return nil
			}
			return a.clients.Close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (defaults and ASSISTANT_* environment variables when empty)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", logrus.WarnLevel.String(), "log level")

	rootCmd.AddCommand(newPDFCmd(a), newChatCmd(a), newCareerCmd(a))
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI: %s\n", err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
