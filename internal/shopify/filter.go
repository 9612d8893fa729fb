package shopify

import "strings"

// TagFilter decides which orders are forwarded based on their tags. Deny
// wins over Allow; an empty Allow set disables allow-list filtering.
type TagFilter struct {
	deny  map[string]struct{}
	allow map[string]struct{}
}

func NewTagFilter(deny, allow []string) TagFilter {
	return TagFilter{
		deny:  tagSet(deny),
		allow: tagSet(allow),
	}
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			set[tag] = struct{}{}
		}
	}
	return set
}

// Denied returns the order tags found on the deny-list.
func (f TagFilter) Denied(tags []string) []string {
	var matched []string
	for _, tag := range tags {
		if _, ok := f.deny[tag]; ok {
			matched = append(matched, tag)
		}
	}
	return matched
}

// Allowed reports whether tags pass the allow-list.
func (f TagFilter) Allowed(tags []string) bool {
	if len(f.allow) == 0 {
		return true
	}
	for _, tag := range tags {
		if _, ok := f.allow[tag]; ok {
			return true
		}
	}
	return false
}

func normalizeTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
