package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/interview-agent/internal/result"
)

const resumeJSON = `{
	"基本信息": {"姓名": "张三"},
	"项目经历": [
		{"项目名称": "商城", "项目描述": "电商平台", "技术栈": ["go", "redis"]},
		{"项目名称": "网关", "项目描述": "API 网关", "已考核": true}
	],
	"技术总结": {"语言": "Go", "岗位": ["后端开发", "基础架构"]}
}`

type stubLLM struct {
	reply result.Result[string]
	input string
}

func (s *stubLLM) Complete(_ context.Context, _, input string) result.Result[string] {
	s.input = input
	return s.reply
}

func TestResumeDecoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.json")
	require.NoError(t, os.WriteFile(path, []byte(resumeJSON), 0o644))

	r, err := ReadResume(path)
	require.NoError(t, err)
	assert.Equal(t, "张三", r.Name)
	assert.Equal(t, "go", r.Language)
	assert.Equal(t, []string{"后端开发", "基础架构"}, r.Positions)
	require.Len(t, r.Projects, 2)
	assert.Equal(t, "电商平台", r.Projects[0].Details["项目描述"])
	assert.True(t, r.Projects[1].Assessed)

	un := r.Unassessed()
	require.Len(t, un, 1)
	assert.Equal(t, "商城", un[0].Name)
}

func TestPositionsAcceptString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"基本信息": {"姓名": "李四"}, "技术总结": {"语言": "python", "岗位": "算法"}}`), 0o644))

	r, err := ReadResume(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"算法"}, r.Positions)
	assert.Empty(t, r.Projects)
}

func TestMarkAssessedKeepsOtherFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.json")
	require.NoError(t, os.WriteFile(path, []byte(resumeJSON), 0o644))

	require.NoError(t, MarkAssessed(path, "商城"))
	r, err := ReadResume(path)
	require.NoError(t, err)
	assert.Empty(t, r.Unassessed())
	assert.Equal(t, []any{"go", "redis"}, r.Projects[0].Details["技术栈"])
	assert.Equal(t, "张三", r.Name)

	assert.Error(t, MarkAssessed(path, "不存在"))
}

func TestParserParse(t *testing.T) {
	llm := &stubLLM{reply: result.Ok("好的：\n```json\n" + resumeJSON + "\n```")}
	p := NewParser(llm, WithExtractor(func(string) (string, error) {
		return "张三\n\n项目：商城", nil
	}))

	parsed, err := p.Parse(t.Context(), "cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, "张三", parsed.Resume.Name)
	assert.JSONEq(t, resumeJSON, string(parsed.Raw))
	assert.Contains(t, llm.input, "项目：商城")
}

func TestParserBoundsInput(t *testing.T) {
	llm := &stubLLM{reply: result.Ok(resumeJSON)}
	long := ""
	for range 50 {
		long += "段落内容段落内容\n\n"
	}
	p := NewParser(llm, WithMaxChars(30), WithExtractor(func(string) (string, error) { return long, nil }))

	_, err := p.Parse(t.Context(), "cv.pdf")
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(llm.input)), len([]rune("简历内容：\n"))+30)
}

func TestParserErrors(t *testing.T) {
	noName := &stubLLM{reply: result.Ok(`{"基本信息": {}}`)}
	p := NewParser(noName, WithExtractor(func(string) (string, error) { return "text", nil }))
	_, err := p.Parse(t.Context(), "cv.pdf")
	assert.ErrorIs(t, err, ErrMalformedResume)

	down := &stubLLM{reply: result.Transient[string](errors.New("503"))}
	p = NewParser(down, WithExtractor(func(string) (string, error) { return "text", nil }))
	_, err = p.Parse(t.Context(), "cv.pdf")
	assert.Error(t, err)

	p = NewParser(down, WithExtractor(func(string) (string, error) { return "  ", nil }))
	_, err = p.Parse(t.Context(), "cv.pdf")
	assert.ErrorIs(t, err, ErrMalformedResume)
}

func TestExtractTextPlainAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(txt, []byte("张三"), 0o644))

	text, err := ExtractText(txt)
	require.NoError(t, err)
	assert.Equal(t, "张三", text)

	_, err = ExtractText(filepath.Join(dir, "cv.docx"))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestLoadLocalFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"b.json", "a.JSON", "sub/c.json", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o644))
	}

	files, err := LoadLocalFiles(dir, ".json")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.JSON"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "sub", "c.json"),
	}, files)
}
