package interview

import (
	"context"
)

const (
	resumeRequest = "你好，我是今天的面试官，请把你最新的简历发给我。"
	introRequest  = "简历我已经收到了，我们正式就开始吧，你做个自我介绍吧。"
)

// InitialRunner asks for the resume, waits for it to be attached and
// invites the candidate to introduce themselves. The introduction is not
// recorded.
type InitialRunner struct{}

func (InitialRunner) Run(ctx context.Context, sess *Session) error {
	resp := sess.Respondent
	if err := resp.Say(ctx, resumeRequest); err != nil {
		return err
	}
	if err := sess.Ready.Wait(ctx); err != nil {
		return err
	}
	answer, err := resp.Ask(ctx, introRequest)
	if err != nil {
		return err
	}
	if IsExit(answer) {
		return ErrExit
	}
	return nil
}
