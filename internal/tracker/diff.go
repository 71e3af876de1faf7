package tracker

import (
	"fmt"
	"strings"
)

// UnifiedDiff produces a minimal unified diff between old and new text
// with the given number of context lines. No third-party diff library
// appears anywhere in the example pack (see DESIGN.md); this is a
// compact line-based longest-common-subsequence diff, not a byte-level
// Myers implementation, which is sufficient for system-prompt sections
// that change by whole lines.
func UnifiedDiff(oldText, newText string, context int) string {
	oldLines := strings.Split(oldText, "\n")
	newLines := strings.Split(newText, "\n")

	ops := diffLines(oldLines, newLines)
	if !hasChange(ops) {
		return ""
	}

	var b strings.Builder
	b.WriteString("--- old\n+++ new\n")
	writeHunks(&b, ops, context)
	return b.String()
}

type opKind int

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

type op struct {
	kind opKind
	line string
}

func hasChange(ops []op) bool {
	for _, o := range ops {
		if o.kind != opEqual {
			return true
		}
	}
	return false
}

// diffLines computes an LCS-based line diff between a and b.
func diffLines(a, b []string) []op {
	n, m := len(a), len(b)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var ops []op
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, op{opEqual, a[i]})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			ops = append(ops, op{opDelete, a[i]})
			i++
		default:
			ops = append(ops, op{opInsert, b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, op{opDelete, a[i]})
	}
	for ; j < m; j++ {
		ops = append(ops, op{opInsert, b[j]})
	}
	return ops
}

// writeHunks groups ops into context-bounded hunks and writes them in
// unified-diff form.
func writeHunks(b *strings.Builder, ops []op, context int) {
	type lineSpan struct {
		start, end int // indices into ops, half-open
	}

	var hunks []lineSpan
	i := 0
	for i < len(ops) {
		if ops[i].kind == opEqual {
			i++
			continue
		}
		start := i
		for start > 0 && i-start < context && ops[start-1].kind == opEqual {
			start--
		}
		end := i
		for end < len(ops) && ops[end].kind != opEqual {
			end++
		}
		extended := end
		for extended < len(ops) && extended-end < context && ops[extended].kind == opEqual {
			extended++
		}
		if len(hunks) > 0 && start <= hunks[len(hunks)-1].end {
			hunks[len(hunks)-1].end = extended
		} else {
			hunks = append(hunks, lineSpan{start, extended})
		}
		i = extended
	}

	oldLine, newLine := 1, 1
	opOldLine := make([]int, len(ops))
	opNewLine := make([]int, len(ops))
	for k, o := range ops {
		opOldLine[k] = oldLine
		opNewLine[k] = newLine
		switch o.kind {
		case opEqual:
			oldLine++
			newLine++
		case opDelete:
			oldLine++
		case opInsert:
			newLine++
		}
	}

	for _, h := range hunks {
		oldCount, newCount := 0, 0
		for k := h.start; k < h.end; k++ {
			switch ops[k].kind {
			case opEqual:
				oldCount++
				newCount++
			case opDelete:
				oldCount++
			case opInsert:
				newCount++
			}
		}
		fmt.Fprintf(b, "@@ -%d,%d +%d,%d @@\n", opOldLine[h.start], oldCount, opNewLine[h.start], newCount)
		for k := h.start; k < h.end; k++ {
			switch ops[k].kind {
			case opEqual:
				b.WriteString(" " + ops[k].line + "\n")
			case opDelete:
				b.WriteString("-" + ops[k].line + "\n")
			case opInsert:
				b.WriteString("+" + ops[k].line + "\n")
			}
		}
	}
}
