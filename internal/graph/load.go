package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type fileItem struct {
	ID       any      `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Tags     []string `json:"tags"`
}

// ReadFile parses a question file: a JSON array of {id, question, answer,
// tags}. Ids are prefixed with the file name up to its first dot so files
// can reuse internal ids.
func ReadFile(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var items []fileItem
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	stem := strings.Split(filepath.Base(path), ".")[0]
	out := make([]Question, 0, len(items))
	for i, it := range items {
		if it.ID == nil {
			return nil, fmt.Errorf("%s: item %d has no id", path, i)
		}
		if strings.TrimSpace(it.Question) == "" {
			return nil, fmt.Errorf("%s: item %v has no question text", path, it.ID)
		}
		if len(it.Tags) == 0 {
			return nil, fmt.Errorf("%s: item %v has no tags", path, it.ID)
		}
		out = append(out, Question{
			ID:     fmt.Sprintf("%s_%v", stem, it.ID),
			Text:   it.Question,
			Answer: it.Answer,
			Tags:   uniq(it.Tags),
		})
	}
	return out, nil
}
