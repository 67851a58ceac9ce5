// summary.go
package openapi2mcp

import (
	"fmt"
	"io"
	"sort"

	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

// PrintToolSummary writes a human-readable summary of the tools generated from ops.
//
// Output example:
//
//	Total tools: 12 (read: 7, write: 5)
//	Tags:
//	  Organization: 4
//	  Site: 8
func PrintToolSummary(w io.Writer, ops []models.Operation) {
	tagCount := map[string]int{}
	reads := 0
	for _, op := range ops {
		if !op.Method.IsWrite() {
			reads++
		}
		for _, tag := range op.Tags {
			tagCount[tag]++
		}
	}
	fmt.Fprintf(w, "Total tools: %d (read: %d, write: %d)\n", len(ops), reads, len(ops)-reads)
	if len(tagCount) == 0 {
		return
	}
	tags := make([]string, 0, len(tagCount))
	for tag := range tagCount {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	fmt.Fprintln(w, "Tags:")
	for _, tag := range tags {
		fmt.Fprintf(w, "  %s: %d\n", tag, tagCount[tag])
	}
}

// PrintToolList writes one line per operation: method, tool name and path.
func PrintToolList(w io.Writer, ops []models.Operation) {
	for _, op := range ops {
		fmt.Fprintf(w, "%-6s %-40s %s\n", op.Method, op.Name, op.Path)
	}
}
