package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importDir string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the question bank with the JSON files in a directory",
	Long: `import reads every *.json file under --dir. Each file holds a list of
{id, question, answer, tags} objects; question ids are prefixed with the
file name. The configured graph backend is replaced atomically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		dir := importDir
		if dir == "" {
			dir = a.cfg.Graph.QuestionsDir
		}
		n, err := importQuestions(cmd.Context(), a.logger, a.bank, dir)
		if err != nil {
			return err
		}
		if a.cfg.Graph.Backend == "memory" {
			fmt.Fprintf(cmd.OutOrStdout(), "Validated %d questions; the memory backend loads %s at startup.\n", n, a.cfg.Graph.QuestionsDir)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d questions into the %s backend.\n", n, a.cfg.Graph.Backend)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDir, "dir", "", "directory of question files (default questions_dir)")
}
