package cmd

import (
	"MultiAI_Assistant/backend/go/internal/pdfqa"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newPDFCmd(a *app) *cobra.Command {
	pdfCmd := &cobra.Command{
		Use:   "pdf",
		Short: "Upload PDFs and ask questions about them",
	}

	uploadCmd := &cobra.Command{
		Use:   "upload [file-path]",
		Short: "Upload a PDF and print its session ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := a.clients.PDF.UploadDocument(cmd.Context(), pdfqa.Document{Name: filepath.Base(args[0]), Content: content})
			if err != nil {
				return err
			}
			if !res.Success {
				return res.Err
			}
			if res.Warning != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", res.Warning)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"session_id": res.SessionID,
				"generated":  res.GeneratedFallback,
				"pages":      res.Info.Pages,
				"attempts":   res.Attempts,
			})
		},
	}

	var sessionID string
	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about an uploaded PDF",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.clients.PDF.AskQuestion(cmd.Context(), strings.Join(args, " "), sessionID)
			if err != nil {
				return err
			}
			if !res.Success {
				return res.Err
			}
			if res.Fields == nil {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(res.Payload))
				return err
			}
			return printJSON(cmd.OutOrStdout(), res.Fields)
		},
	}
	askCmd.Flags().StringVarP(&sessionID, "session", "s", "", "session ID returned by upload")
	_ = askCmd.MarkFlagRequired("session")

	pdfCmd.AddCommand(uploadCmd, askCmd)
	return pdfCmd
}
