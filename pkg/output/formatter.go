package output

import (
	"fmt"

	"github.com/fatih/color"

	"vaultgraph/pkg/analysis"
	"vaultgraph/pkg/cycles"
)

// PrintVaultReport prints a colorized summary of the vault graph to the
// console.
func PrintVaultReport(root string, report *analysis.Report, linkCycles []cycles.LinkCycle) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("Vaultgraph - Vault Report")
	bold.Println("=========================")
	fmt.Printf("Vault: %s\n", root)
	fmt.Printf("Nodes: %d\n", report.Nodes)
	fmt.Printf("Edges: %d\n", report.Edges)

	if len(report.Unresolved) == 0 {
		green.Printf("Resolved: %d links\n", report.Resolved)
		green.Println("Unresolved: 0 links")
	} else {
		fmt.Printf("Resolved: %d links\n", report.Resolved)
		yellow.Printf("Unresolved: %d link(s)\n", len(report.Unresolved))
	}
	fmt.Println()

	if len(report.Unresolved) > 0 {
		red.Println("UNRESOLVED LINKS:")
		for _, ul := range report.Unresolved {
			yellow.Printf("  [[%s]]\n", ul.Target)
			cyan.Printf("    Source: %s\n", ul.SourceID)
			if ul.Label != "" {
				fmt.Printf("    Label: %s\n", ul.Label)
			}
		}
		fmt.Println()
	}

	if len(report.Orphans) > 0 {
		yellow.Printf("ORPHAN NOTES (%d):\n", len(report.Orphans))
		for _, id := range report.Orphans {
			fmt.Printf("  %s\n", id)
		}
		fmt.Println()
	}

	if len(linkCycles) > 0 {
		red.Printf("REFERENCE CYCLES (%d):\n", len(linkCycles))
		for _, c := range linkCycles {
			fmt.Printf("  %v\n", c.Nodes)
		}
		fmt.Println()
	}

	// Summary line colored by how healthy the vault looks
	percentage := 100.0
	if report.Edges > 0 {
		percentage = float64(report.Resolved) / float64(report.Edges) * 100.0
	}

	summaryColor := green
	if percentage < 100.0 {
		summaryColor = yellow
	}
	if percentage < 80.0 {
		summaryColor = red
	}
	summaryColor.Printf("Summary: %.0f%% of links resolved (%d/%d)\n", percentage, report.Resolved, report.Edges)

	if percentage == 100.0 && len(linkCycles) == 0 {
		green.Println("✓ Every link resolves to a note!")
	}
}
