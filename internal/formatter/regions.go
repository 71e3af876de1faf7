package formatter

import (
	"regexp"
	"strings"

	"github.com/cc-dump/ccdump/internal/ir"
)

// xmlTagRe matches a line that is exactly a single XML-ish opening or
// closing tag (e.g. "<document>" or "</document>"), the shape tool
// transcripts and system prompts actually use for sectioning.
var xmlTagRe = regexp.MustCompile(`^<(/?)([a-zA-Z][\w:-]*)>$`)

// segmentRegions scans text line-by-line for the three content_regions
// kinds spec.md's common header names: fenced code blocks (``` ... ```),
// fenced markdown asides (~~~ ... ~~~), and single-tag XML sections
// (<tag> ... </tag>). Regions never overlap or nest; the first opening
// marker found wins and scanning resumes after its matching close. An
// unterminated opener is not a region (spec.md is silent on malformed
// input; treating it as plain text is the conservative reading).
func segmentRegions(text string) []ir.Region {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	var regions []ir.Region

	for i := 0; i < len(lines); {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(trimmed, "```"):
			if end := findFenceClose(lines, i+1, "```"); end > i {
				regions = append(regions, ir.Region{Kind: ir.RegionCodeFence, Start: i, End: end, Lines: end - i + 1})
				i = end + 1
				continue
			}
		case strings.HasPrefix(trimmed, "~~~"):
			if end := findFenceClose(lines, i+1, "~~~"); end > i {
				regions = append(regions, ir.Region{Kind: ir.RegionMarkdownFence, Start: i, End: end, Lines: end - i + 1})
				i = end + 1
				continue
			}
		default:
			if m := xmlTagRe.FindStringSubmatch(trimmed); m != nil && m[1] == "" {
				if end := findXMLClose(lines, i+1, m[2]); end > i {
					regions = append(regions, ir.Region{Kind: ir.RegionXML, Start: i, End: end, Lines: end - i + 1})
					i = end + 1
					continue
				}
			}
		}
		i++
	}
	return regions
}

func findFenceClose(lines []string, from int, marker string) int {
	for j := from; j < len(lines); j++ {
		if strings.HasPrefix(strings.TrimSpace(lines[j]), marker) {
			return j
		}
	}
	return -1
}

func findXMLClose(lines []string, from int, tag string) int {
	want := "</" + tag + ">"
	for j := from; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == want {
			return j
		}
	}
	return -1
}
