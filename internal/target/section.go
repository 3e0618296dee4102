// SPDX-License-Identifier: MPL-2.0

package target

import (
	"strings"
)

// Managed-block sentinel markers. Content outside the block is never
// modified; inside it, each module owns exactly one "### <module>"
// subsection.
const (
	StartMarker = "<!-- lola:skills:start -->"
	EndMarker   = "<!-- lola:skills:end -->"
)

// UpsertSection inserts or replaces a module's subsection inside the
// marker-delimited block of doc. The rendered subsection must begin with
// the module's "### <name>" heading. When the markers are absent, header
// plus a fresh managed block is appended to the end of the document.
//
// Re-upserting the same module moves its subsection to the end of the
// block relative to other modules; this reordering on update is an
// intentional consequence of drop-then-append.
func UpsertSection(doc, moduleName, rendered, header string) string {
	start, end := blockBounds(doc)
	if start == -1 {
		block := "\n\n" + header + StartMarker + "\n" + rendered + EndMarker + "\n"
		return strings.TrimRight(doc, " \t\n") + block
	}

	inner := doc[start+len(StartMarker) : end]
	kept := dropSubsection(inner, moduleName)
	newBlock := StartMarker + kept + rendered + EndMarker
	return doc[:start] + newBlock + doc[end+len(EndMarker):]
}

// RemoveSection deletes a module's subsection from the managed block. The
// document is returned unchanged when it has no managed block.
func RemoveSection(doc, moduleName string) string {
	start, end := blockBounds(doc)
	if start == -1 {
		return doc
	}

	inner := doc[start+len(StartMarker) : end]
	kept := dropSubsection(inner, moduleName)
	newBlock := StartMarker + kept + EndMarker
	return doc[:start] + newBlock + doc[end+len(EndMarker):]
}

// blockBounds locates the managed block: the start marker and the first
// end marker after it. Both indexes are -1 when the document has no
// well-formed block, including an end marker stranded before the start
// marker in a hand-edited document.
func blockBounds(doc string) (start, end int) {
	start = strings.Index(doc, StartMarker)
	if start == -1 {
		return -1, -1
	}
	rest := strings.Index(doc[start+len(StartMarker):], EndMarker)
	if rest == -1 {
		return -1, -1
	}
	return start, start + len(StartMarker) + rest
}

// dropSubsection removes the region belonging to moduleName: from its
// "### <name>" heading up to (but excluding) the next level-3 heading or
// the end of the block. All other lines keep their original relative order.
func dropSubsection(inner, moduleName string) string {
	lines := strings.Split(inner, "\n")
	kept := make([]string, 0, len(lines))
	skipping := false
	for _, line := range lines {
		if strings.HasPrefix(line, "### ") {
			if line == "### "+moduleName {
				skipping = true
				continue
			}
			skipping = false
		}
		if !skipping {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
