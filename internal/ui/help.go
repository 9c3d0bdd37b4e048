package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/mgpai22/dubmark/internal/controller"
)

// helpMarkdown lists every binding as a markdown table.
func helpMarkdown(bindings []controller.Binding) string {
	var b strings.Builder
	b.WriteString("# Keys\n\n")
	b.WriteString("| Key | Action |\n|---|---|\n")
	for _, binding := range bindings {
		labels := make([]string, 0, len(binding.Keys))
		for _, k := range binding.Keys {
			if l := keyLabel(k); l != "" && !contains(labels, "`"+l+"`") {
				labels = append(labels, "`"+l+"`")
			}
		}
		fmt.Fprintf(&b, "| %s | %s |\n", strings.Join(labels, " "), binding.Help)
	}
	b.WriteString("\nMarks are appended to `tmp/timestamp.txt`; the newest mark of a line wins.\n")
	return b.String()
}

func keyLabel(k string) string {
	switch k {
	case " ", "space":
		return "space"
	case "|":
		return `\|`
	}
	return k
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// renderHelp renders the help page once, before the program takes over the
// terminal.
func renderHelp(bindings []controller.Binding, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(helpMarkdown(bindings))
}
