package views

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Markdown renders the active project as a Markdown task list.
func Markdown(vm ViewModel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(vm.Title))

	if vm.Empty {
		fmt.Fprintf(&b, "_%s_\n", EmptyTitle)
		return b.String()
	}

	for _, t := range vm.Todos {
		box := " "
		if t.Done {
			box = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s (%s)\n", box, escapeMarkdown(t.Title), t.DueText)
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

var (
	termRendererMu sync.Mutex
	termRenderers  = map[int]*glamour.TermRenderer{}
)

// StyleMarkdown renders md for a terminal of the given width. A fixed style is
// used so rendering never queries the terminal.
func StyleMarkdown(md string, width int) (string, error) {
	if width < 20 {
		width = 20
	}

	termRendererMu.Lock()
	defer termRendererMu.Unlock()

	r := termRenderers[width]
	if r == nil {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		termRenderers[width] = r
	}
	return r.Render(md)
}
