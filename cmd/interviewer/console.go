package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Divas-Gupta30/interview-agent/internal/interview"
)

var consoleResume string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run one interview in the terminal",
	Long: `console starts a session answered on stdin. The resume PDF given with
--resume is attached as soon as the interviewer asks for it. Answer
"结束", "quit" or "exit" to stop early.`,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().StringVar(&consoleResume, "resume", "", "candidate resume (PDF)")
	_ = consoleCmd.MarkFlagRequired("resume")
}

func runConsole(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Open(consoleResume)
	if err != nil {
		return fmt.Errorf("opening resume: %w", err)
	}
	defer f.Close()

	svc := a.service()
	sess, err := svc.Start(interview.NewConsole(os.Stdin, cmd.OutOrStdout()))
	if err != nil {
		return err
	}

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		_ = svc.Abort(sess.ID)
	}()

	if _, err := svc.IngestResume(cmd.Context(), sess.ID, filepath.Base(consoleResume), f); err != nil {
		_ = svc.Abort(sess.ID)
		svc.Wait()
		return fmt.Errorf("parsing resume: %w", err)
	}
	svc.Wait()

	fmt.Fprintf(cmd.OutOrStdout(), "\n面试结束。记录保存在 %s\n", sess.Layout.Root)
	return nil
}
