package conversation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"roundtable-hq/roundtable/pkg/persona"
)

// directivePattern matches the structured mention directive
// [MENTION:Name:reason]. The reason may be empty.
var directivePattern = regexp.MustCompile(`\[MENTION:([^:\]]+):([^\]]*)\]`)

// ParseMentions scans assistant text for mentions of roster personas and
// derives the optional next-speaker hint.
//
// Two syntaxes are recognized: the inline @Name token (case-insensitive,
// name-boundary enforced so a roster name never matches inside a longer
// word) and the structured [MENTION:Name:reason] directive, which is
// rewritten to @Name in the returned content.
//
// A mention is promoted to next speaker when it came from a directive
// (explicit intent), or when the message contains a question mark anywhere
// (a question directed at someone implies they should respond). When
// several mentions qualify, the first in document order wins; this is a
// deliberate, deterministic choice.
func ParseMentions(text string, roster *persona.Roster) *TurnDecision {
	decision := &TurnDecision{Mentions: []string{}}

	content, explicit, reasoning := rewriteDirectives(text, roster)
	decision.Content = content
	decision.Reasoning = reasoning

	matches := findInlineMentions(content, roster)

	hasQuestion := strings.Contains(content, "?")

	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if !seen[m.name] {
			seen[m.name] = true
			decision.Mentions = append(decision.Mentions, m.name)
		}

		if decision.NextPersonaID != "" {
			continue
		}
		if explicit[mentionKey(m.name, m.pos)] || hasQuestion {
			if p, ok := roster.ByName(m.name); ok {
				decision.NextPersonaID = p.ID
			}
		}
	}

	return decision
}

type inlineMention struct {
	pos  int
	name string // canonical roster name
}

// rewriteDirectives replaces every [MENTION:Name:reason] whose name is on
// the roster with @Name, and records the rewritten positions as explicit
// mentions. Directives naming unknown personas are dropped from the content.
// The reason of the first valid directive is returned.
func rewriteDirectives(text string, roster *persona.Roster) (string, map[string]bool, string) {
	explicit := make(map[string]bool)
	var reasoning string

	var out strings.Builder
	last := 0

	for _, loc := range directivePattern.FindAllStringSubmatchIndex(text, -1) {
		out.WriteString(text[last:loc[0]])
		last = loc[1]

		name := text[loc[2]:loc[3]]
		reason := text[loc[4]:loc[5]]

		p, ok := roster.ByName(strings.TrimSpace(name))
		if !ok {
			continue
		}

		explicit[mentionKey(p.Name, out.Len())] = true
		if reasoning == "" {
			reasoning = strings.TrimSpace(reason)
		}
		out.WriteString("@" + p.Name)
	}
	out.WriteString(text[last:])

	return out.String(), explicit, reasoning
}

// findInlineMentions locates every @Name occurrence of a roster name,
// returned in document order. Regex metacharacters in names are escaped,
// matching is case-insensitive, and the token must not be followed by a
// word character: "@Al" never matches inside "@Alice", and "@Alicebot"
// never matches roster name "Alice".
func findInlineMentions(content string, roster *persona.Roster) []inlineMention {
	var matches []inlineMention

	for _, name := range roster.Names() {
		if name == "" {
			continue
		}
		pattern, err := regexp.Compile(`(?i)@` + regexp.QuoteMeta(name) + `(?:[^a-zA-Z0-9_]|$)`)
		if err != nil {
			continue
		}
		for _, loc := range pattern.FindAllStringIndex(content, -1) {
			matches = append(matches, inlineMention{pos: loc[0], name: name})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	return matches
}

// mentionKey identifies one mention occurrence by canonical name and the
// position of its "@" in the rewritten content.
func mentionKey(name string, pos int) string {
	return strings.ToLower(name) + "@" + strconv.Itoa(pos)
}
