package interview

import "strings"

// TagGroups orders the tags a theory stage samples from: the coding
// language first, then the candidate's target roles. Blank tags and empty
// groups are dropped.
func TagGroups(language string, roles []string) [][]string {
	var groups [][]string
	if lang := strings.TrimSpace(language); lang != "" {
		groups = append(groups, []string{lang})
	}
	var rs []string
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			rs = append(rs, r)
		}
	}
	if len(rs) > 0 {
		groups = append(groups, rs)
	}
	return groups
}
