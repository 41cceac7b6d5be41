package flatten

import (
	"regexp"
	"strings"

	"github.com/PillarGame/TokenSales/depgraph"
)

var importStatementPattern = regexp.MustCompile(`(?m)^\s*import(\s+)[\s\S]*?;\s*$`)

// StripImports returns the content of file with every import statement removed and
// surrounding whitespace trimmed.
func StripImports(file *depgraph.ResolvedFile) string {
	return strings.TrimSpace(importStatementPattern.ReplaceAllString(file.Content.RawContent, ""))
}
