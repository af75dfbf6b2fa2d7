// Package ica rewrites Citrix ICA launch descriptors.
//
// Descriptors are treated as text. Edits are literal first-occurrence
// substitutions on section titles and key=value lines; nothing here parses
// the INI structure, so a title string that also appears inside a value is
// matched wherever it occurs first.
package ica

import "strings"

// Section titles and settings forced for a seamless, windowed session.
const (
	ThinwireSection = "[Thinwire 3.0]"
	WFClientSection = "[WFClient]"
)

// Patcher is the set of text edits Patch is built from.
type Patcher interface {
	EnsureSection(content, title string, settings ...string) string
	ReplaceFirst(content, old, replacement string) string
}

// TextPatcher implements Patcher with plain string substitution.
type TextPatcher struct{}

// EnsureSection appends title when it is missing, then inserts settings
// directly after its first occurrence.
func (TextPatcher) EnsureSection(content, title string, settings ...string) string {
	if !strings.Contains(content, title) {
		content = content + "\n" + title
	}
	block := strings.Join(append([]string{title}, settings...), "\n")
	return strings.Replace(content, title, block, 1)
}

// ReplaceFirst replaces the first occurrence of old.
func (TextPatcher) ReplaceFirst(content, old, replacement string) string {
	return strings.Replace(content, old, replacement, 1)
}

// Patch applies the seamless-window settings using the text patcher.
func Patch(content string) string {
	return PatchWith(TextPatcher{}, content)
}

// PatchWith applies the seamless-window settings using p.
func PatchWith(p Patcher, content string) string {
	content = p.EnsureSection(content, ThinwireSection, "TWIFullScreenMode=1")
	content = p.EnsureSection(content, WFClientSection, "TWISeamlessFlag=1")
	return p.ReplaceFirst(content, "TWIMode=Off", "TWIMode=On\nTWIIgnoreWorkArea=1")
}
