package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Divas-Gupta30/interview-agent/internal/llm"
	"github.com/Divas-Gupta30/interview-agent/internal/processing"
	"github.com/Divas-Gupta30/interview-agent/internal/result"
	"github.com/Divas-Gupta30/interview-agent/internal/transcript"
	"github.com/Divas-Gupta30/interview-agent/prompts"
)

// Keys of the persisted resume document.
const (
	keyBasics    = "基本信息"
	keyName      = "姓名"
	keyProjects  = "项目经历"
	keyProject   = "项目名称"
	keyAssessed  = "已考核"
	keySkills    = "技术总结"
	keyLanguage  = "语言"
	keyPositions = "岗位"
)

var ErrMalformedResume = errors.New("malformed resume")

// Project is one entry of the resume's project history. Details holds the
// whole entry as parsed.
type Project struct {
	Name     string
	Assessed bool
	Details  map[string]any
}

func (p *Project) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	name, _ := m[keyProject].(string)
	assessed, _ := m[keyAssessed].(bool)
	*p = Project{Name: name, Assessed: assessed, Details: m}
	return nil
}

// Resume is the structured view of a parsed resume.
type Resume struct {
	Name      string
	Projects  []Project
	Language  string
	Positions []string
}

// stringList accepts either a JSON string or an array of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = nil
		if strings.TrimSpace(one) != "" {
			*l = stringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

type resumeDoc struct {
	Basics struct {
		Name string `json:"姓名"`
	} `json:"基本信息"`
	Projects []Project `json:"项目经历"`
	Skills   struct {
		Language  string     `json:"语言"`
		Positions stringList `json:"岗位"`
	} `json:"技术总结"`
}

func (r *Resume) UnmarshalJSON(data []byte) error {
	var doc resumeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*r = Resume{
		Name:      strings.TrimSpace(doc.Basics.Name),
		Projects:  doc.Projects,
		Language:  strings.ToLower(strings.TrimSpace(doc.Skills.Language)),
		Positions: doc.Skills.Positions,
	}
	return nil
}

// Unassessed returns the projects not yet covered by a project stage.
func (r *Resume) Unassessed() []Project {
	var out []Project
	for _, p := range r.Projects {
		if !p.Assessed {
			out = append(out, p)
		}
	}
	return out
}

// ReadResume loads a persisted resume document.
func ReadResume(path string) (*Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume: %w", err)
	}
	var r Resume
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResume, err)
	}
	return &r, nil
}

// MarkAssessed sets 已考核 on the named project in the resume at path,
// leaving every other field as it was.
func MarkAssessed(path, projectName string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading resume: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResume, err)
	}

	projects, _ := doc[keyProjects].([]any)
	found := false
	for _, p := range projects {
		m, ok := p.(map[string]any)
		if ok && m[keyProject] == projectName {
			m[keyAssessed] = true
			found = true
		}
	}
	if !found {
		return fmt.Errorf("project %q not in resume", projectName)
	}
	return transcript.WriteJSON(path, doc)
}

// Completer is the one-shot side of the language model client.
type Completer interface {
	Complete(ctx context.Context, system, input string) result.Result[string]
}

// Parsed is a parsed resume together with the document to persist.
type Parsed struct {
	Resume *Resume
	Raw    json.RawMessage
}

// DefaultMaxChars bounds the resume text sent to the model.
const DefaultMaxChars = 12000

type Parser struct {
	llm      Completer
	maxChars int
	extract  func(path string) (string, error)
}

type ParserOption func(*Parser)

func WithMaxChars(n int) ParserOption {
	return func(p *Parser) { p.maxChars = n }
}

// WithExtractor replaces ExtractText.
func WithExtractor(fn func(path string) (string, error)) ParserOption {
	return func(p *Parser) { p.extract = fn }
}

func NewParser(c Completer, opts ...ParserOption) *Parser {
	p := &Parser{llm: c, maxChars: DefaultMaxChars, extract: ExtractText}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts the text of the resume at path and asks the model to
// structure it. The candidate name is required.
func (p *Parser) Parse(ctx context.Context, path string) (*Parsed, error) {
	text, err := p.extract(path)
	if err != nil {
		return nil, fmt.Errorf("extracting resume text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no text in document", ErrMalformedResume)
	}

	system, err := prompts.Load(prompts.Resume)
	if err != nil {
		return nil, err
	}
	input := "简历内容：\n" + processing.Budget(processing.ChunkText(text), p.maxChars)
	res := p.llm.Complete(ctx, system, input)
	if !res.Ok() {
		if res.Err != nil {
			return nil, fmt.Errorf("parsing resume (%s): %w", res.Kind, res.Err)
		}
		return nil, fmt.Errorf("parsing resume: model returned nothing")
	}

	var r Resume
	raw, err := llm.DecodeJSON(res.Value, &r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResume, err)
	}
	if r.Name == "" {
		return nil, fmt.Errorf("%w: missing %s.%s", ErrMalformedResume, keyBasics, keyName)
	}
	return &Parsed{Resume: &r, Raw: raw}, nil
}
