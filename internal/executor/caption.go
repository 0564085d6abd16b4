package executor

import (
	"strings"
	"unicode"
)

// BuildCaption concatenates title, description and the normalized hashtag
// block. Hashtag tokens may arrive comma- or space-separated, with or
// without a leading '#'; each comes out prefixed exactly once.
func BuildCaption(title, description, hashtags string) string {
	var parts []string

	if title != "" {
		parts = append(parts, title)
	}
	if description != "" {
		parts = append(parts, description)
	}
	if block := normalizeHashtags(hashtags); block != "" {
		parts = append(parts, block)
	}

	return strings.Join(parts, "\n\n")
}

func normalizeHashtags(hashtags string) string {
	fields := strings.FieldsFunc(hashtags, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	var tags []string
	for _, tag := range fields {
		tag = strings.TrimLeft(tag, "#")
		if tag != "" {
			tags = append(tags, "#"+tag)
		}
	}

	return strings.Join(tags, " ")
}
