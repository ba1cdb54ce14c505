package interview

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatch(t *testing.T) {
	l := NewLatch()
	assert.False(t, l.IsSet())

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Wait(context.Background()))
		}()
	}
	l.Set()
	l.Set()
	wg.Wait()
	assert.True(t, l.IsSet())
	assert.NoError(t, l.Wait(context.Background()))
}

func TestLatchWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewLatch().Wait(ctx), context.Canceled)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	a := NewSession("b", Layout{}, nil)
	b := NewSession("a", Layout{}, nil)
	require.NoError(t, store.Create(a))
	require.NoError(t, store.Create(b))
	assert.Error(t, store.Create(NewSession("a", Layout{}, nil)))

	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Same(t, b, got)
	_, ok = store.Get("zzz")
	assert.False(t, ok)

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
}

func TestSessionSnapshot(t *testing.T) {
	sess := NewSession("s1", NewLayout("/data", "s1"), nil)
	st := sess.Snapshot()
	assert.Equal(t, StageNotStarted, st.Status)
	assert.Nil(t, st.ResumePath)

	attachResume(sess, "张三", "/data/s1/cv.json")
	st = sess.Snapshot()
	require.NotNil(t, st.CandidateName)
	assert.Equal(t, "张三", *st.CandidateName)
	assert.Equal(t, "/data/s1/cv.json", *st.ResumePath)

	assert.True(t, sess.setStage(StageTheory))
	assert.False(t, sess.setStage(StageInitial))
	assert.Equal(t, StageTheory, sess.Stage())
}

func TestIsExit(t *testing.T) {
	for _, a := range []string{"结束", " QUIT ", "exit", "Exit"} {
		assert.True(t, IsExit(a), a)
	}
	for _, a := range []string{"", "结束了", "quite", "我想 exit"} {
		assert.False(t, IsExit(a), a)
	}
}

func TestTagGroups(t *testing.T) {
	assert.Equal(t, [][]string{{"go"}, {"后端", "运维"}}, TagGroups("go", []string{"后端", " ", "运维"}))
	assert.Equal(t, [][]string{{"后端"}}, TagGroups("", []string{"后端"}))
	assert.Nil(t, TagGroups(" ", nil))
}

func TestExchange(t *testing.T) {
	ex := NewExchange()
	assert.ErrorIs(t, ex.Answer("too early"), ErrNoPendingQuestion)
	require.NoError(t, ex.Say(context.Background(), "你好"))

	got := make(chan string, 1)
	go func() {
		a, err := ex.Ask(context.Background(), "自我介绍一下")
		assert.NoError(t, err)
		got <- a
	}()

	require.Eventually(t, func() bool {
		_, pending, ok := ex.Messages(0)
		return ok && pending == "自我介绍一下"
	}, time.Second, time.Millisecond)

	require.NoError(t, ex.Answer("我是张三"))
	assert.ErrorIs(t, ex.Answer("again"), ErrNoPendingQuestion)
	assert.Equal(t, "我是张三", <-got)

	msgs, _, waiting := ex.Messages(1)
	assert.False(t, waiting)
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleInterviewer, msgs[0].Role)
	assert.Equal(t, Message{Seq: 3, Role: RoleCandidate, Text: "我是张三", Time: msgs[1].Time}, msgs[1])
}

func TestExchangeAskCancelled(t *testing.T) {
	ex := NewExchange()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ex.Ask(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
	_, _, waiting := ex.Messages(0)
	assert.False(t, waiting)
}

func TestConsole(t *testing.T) {
	var out strings.Builder
	c := NewConsole(strings.NewReader("python\r\nquit"), &out)

	a, err := c.Ask(context.Background(), "你熟悉哪个开发语言？")
	require.NoError(t, err)
	assert.Equal(t, "python", a)

	a, err = c.Ask(context.Background(), "GIL 是什么？")
	require.NoError(t, err)
	assert.Equal(t, "quit", a)

	_, err = c.Ask(context.Background(), "还在吗？")
	assert.Error(t, err)
	assert.Contains(t, out.String(), "面试官：GIL 是什么？")
}
