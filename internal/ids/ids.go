// Package ids implements the slug validation and composite-id rules
// shared across every engine.
package ids

import (
	"fmt"
	"regexp"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidSlug reports whether s is a valid slug: lowercase alphanumeric
// characters and hyphens, starting with an alphanumeric character.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Artifact builds the "artifact:<slug>" identifier.
func Artifact(slug string) string { return fmt.Sprintf("artifact:%s", slug) }

// Reputation builds the "reputation:<slug>" identifier.
func Reputation(slug string) string { return fmt.Sprintf("reputation:%s", slug) }

// Contract builds the "contract:<slug>" identifier.
func Contract(slug string) string { return fmt.Sprintf("contract:%s", slug) }

// Project builds the "project:<slug>" identifier.
func Project(slug string) string { return fmt.Sprintf("project:%s", slug) }

// Task builds the "task:<project-slug>/<task-slug>" identifier.
func Task(projectSlug, taskSlug string) string {
	return fmt.Sprintf("task:%s/%s", projectSlug, taskSlug)
}

// SlugFromDID derives a filesystem-safe slug from a DID by replacing every
// run of non-alphanumeric characters with a single hyphen.
func SlugFromDID(did string) string {
	out := make([]byte, 0, len(did))
	lastHyphen := false
	for i := 0; i < len(did); i++ {
		c := did[i]
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if isAlnum {
			if c >= 'A' && c <= 'Z' {
				c = c - 'A' + 'a'
			}
			out = append(out, c)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			out = append(out, '-')
			lastHyphen = true
		}
	}
	slug := string(out)
	for len(slug) > 0 && slug[0] == '-' {
		slug = slug[1:]
	}
	for len(slug) > 0 && slug[len(slug)-1] == '-' {
		slug = slug[:len(slug)-1]
	}
	if slug == "" {
		slug = "agent"
	}
	return slug
}
