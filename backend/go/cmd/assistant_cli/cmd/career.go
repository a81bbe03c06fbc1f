package cmd

import (
	"MultiAI_Assistant/backend/go/internal/career"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func readCV(path string) (career.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return career.File{}, err
	}
	return career.File{Name: filepath.Base(path), Content: content}, nil
}

func newCareerCmd(a *app) *cobra.Command {
	careerCmd := &cobra.Command{
		Use:   "career",
		Short: "Generate cover letters and analyze CVs",
	}

	var req career.CoverLetterRequest
	var cvPath string
	coverCmd := &cobra.Command{
		Use:   "cover-letter",
		Short: "Generate a cover letter from a CV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cv, err := readCV(cvPath)
			if err != nil {
				return err
			}
			req.CV = cv
			letter, err := a.clients.Career.GenerateCoverLetter(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), letter.CoverLetter)
			return err
		},
	}
	coverCmd.Flags().StringVar(&cvPath, "cv", "", "path to the CV file")
	coverCmd.Flags().StringVar(&req.ApplyingRole, "role", "", "role you are applying for")
	coverCmd.Flags().StringVar(&req.CompanyName, "company", "", "company name")
	coverCmd.Flags().StringVar(&req.Tone, "tone", "professional", "tone of the letter")
	coverCmd.Flags().StringVar(&req.AdditionalInstructions, "instructions", "", "additional instructions")
	_ = coverCmd.MarkFlagRequired("cv")
	_ = coverCmd.MarkFlagRequired("role")
	_ = coverCmd.MarkFlagRequired("company")

	var topN int
	analyzeCmd := &cobra.Command{
		Use:   "analyze [cv-path]",
		Short: "Analyze a CV and list matching jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cv, err := readCV(args[0])
			if err != nil {
				return err
			}
			analysis, src, err := a.clients.Career.AnalyzeCV(cmd.Context(), cv, topN)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "source:", src)
			return printJSON(cmd.OutOrStdout(), analysis)
		},
	}
	analyzeCmd.Flags().IntVarP(&topN, "top-n", "n", 5, "number of job matches to return")

	careerCmd.AddCommand(coverCmd, analyzeCmd)
	return careerCmd
}
