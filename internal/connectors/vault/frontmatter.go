package vault

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// frontMatter is the subset of note metadata the corpus uses.
type frontMatter struct {
	Title    string     `yaml:"title"`
	Tags     stringList `yaml:"tags"`
	Aliases  stringList `yaml:"aliases"`
	Created  noteTime   `yaml:"created"`
	Modified noteTime   `yaml:"modified"`
	Updated  noteTime   `yaml:"updated"`
}

// stringList accepts a YAML sequence or a comma separated scalar.
type stringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var out []string
		for _, part := range strings.Split(value.Value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*l = out
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: list items must be scalars", item.Line)
			}
			if v := strings.TrimSpace(item.Value); v != "" {
				out = append(out, v)
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a list or string", value.Line)
	}
}

// noteTime accepts the date formats note apps commonly write.
type noteTime struct {
	time.Time
}

var noteTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *noteTime) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a date", value.Line)
	}
	raw := strings.TrimSpace(value.Value)
	if raw == "" {
		return nil
	}
	for _, layout := range noteTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("line %d: unrecognised date %q", value.Line, raw)
}

const fence = "---"

// splitFrontMatter separates a leading front matter block from the body.
// ok is false when the note has no complete block.
func splitFrontMatter(text string) (meta, body string, ok bool) {
	text = strings.TrimPrefix(text, "\ufeff")
	first, rest, found := strings.Cut(text, "\n")
	if !found || strings.TrimRight(first, " \r") != fence {
		return "", text, false
	}

	offset := 0
	for {
		line, next, more := strings.Cut(rest[offset:], "\n")
		trimmed := strings.TrimRight(line, " \r")
		if trimmed == fence || trimmed == "..." {
			meta = rest[:offset]
			if more {
				body = next
			}
			return meta, body, true
		}
		if !more {
			return "", text, false
		}
		offset += len(line) + 1
	}
}

// parseFrontMatter decodes a front matter block.
func parseFrontMatter(meta string) (frontMatter, error) {
	var fm frontMatter
	if strings.TrimSpace(meta) == "" {
		return fm, nil
	}
	if err := yaml.Unmarshal([]byte(meta), &fm); err != nil {
		return frontMatter{}, fmt.Errorf("decode front matter: %w", err)
	}
	return fm, nil
}
