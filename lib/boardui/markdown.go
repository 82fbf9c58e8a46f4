// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/devtrack-foundation/devtrack/lib/tui"
)

var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

// getMarkdownParser returns the shared parser. Ticket descriptions
// come from a plain textarea in the web client, so only the inline
// extensions people actually type are enabled.
func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.TaskList,
				extension.Linkify,
			),
		)
	})
	return markdownParserInstance
}

// renderMarkdown renders markdown as styled terminal text wrapped to
// width. Soft line breaks become spaces so hard-wrapped text reflows.
func renderMarkdown(input string, theme tui.Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	// The output always goes to the terminal program, so the profile
	// is forced instead of detected from a possibly absent TTY.
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &markdownRenderer{
		source:      source,
		theme:       theme,
		width:       width,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)
	return strings.TrimRight(renderer.output.String(), "\n")
}

// markdownRenderer walks a goldmark AST. Inline content of a block
// accumulates in inline and is wrapped as a unit when the block
// closes.
type markdownRenderer struct {
	source      []byte
	theme       tui.Theme
	width       int
	lipRenderer *lipgloss.Renderer

	output           strings.Builder
	inline           strings.Builder
	trailingNewlines int

	// Prefixes for nested blockquotes and list items. pendingBullet
	// replaces the prefix on the first line of a list item.
	prefixes      []string
	pendingBullet string

	boldCount          int
	italicCount        int
	strikethroughCount int

	lists []listState
}

type listState struct {
	ordered bool
	counter int
	tight   bool
}

func (renderer *markdownRenderer) newStyle() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

func (renderer *markdownRenderer) linePrefix() string {
	return strings.Join(renderer.prefixes, "")
}

// currentWidth is the wrap width inside the current prefixes, never
// below 10.
func (renderer *markdownRenderer) currentWidth() int {
	return max(renderer.width-ansi.StringWidth(renderer.linePrefix()), 10)
}

func (renderer *markdownRenderer) inTightList() bool {
	return len(renderer.lists) > 0 && renderer.lists[len(renderer.lists)-1].tight
}

func (renderer *markdownRenderer) writeOutput(s string) {
	if s == "" {
		return
	}
	renderer.output.WriteString(s)
	trimmed := strings.TrimRight(s, "\n")
	if trimmed == "" {
		renderer.trailingNewlines += len(s)
	} else {
		renderer.trailingNewlines = len(s) - len(trimmed)
	}
}

func (renderer *markdownRenderer) ensureNewline() {
	if renderer.output.Len() > 0 && renderer.trailingNewlines < 1 {
		renderer.writeOutput("\n")
	}
}

func (renderer *markdownRenderer) ensureBlankLine() {
	if renderer.output.Len() == 0 {
		return
	}
	for renderer.trailingNewlines < 2 {
		renderer.writeOutput("\n")
	}
}

// applyPrefixes prefixes every line of content; the first line takes a
// pending list bullet if there is one.
func (renderer *markdownRenderer) applyPrefixes(content string) string {
	prefix := renderer.linePrefix()
	lines := strings.Split(content, "\n")
	for index, line := range lines {
		if index == 0 && renderer.pendingBullet != "" {
			lines[index] = renderer.pendingBullet + line
			renderer.pendingBullet = ""
			continue
		}
		lines[index] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// emitBlock writes wrapped, prefixed content as one block.
func (renderer *markdownRenderer) emitBlock(content string, blankAfter bool) {
	if content == "" {
		return
	}
	renderer.writeOutput(renderer.applyPrefixes(ansi.Wrap(content, renderer.currentWidth(), " ,.;-+|")))
	renderer.ensureNewline()
	if blankAfter {
		renderer.ensureBlankLine()
	}
}

func (renderer *markdownRenderer) styledText(content string) string {
	style := renderer.newStyle().Foreground(renderer.theme.NormalText)
	if renderer.boldCount > 0 {
		style = style.Bold(true)
	}
	if renderer.italicCount > 0 {
		style = style.Italic(true)
	}
	if renderer.strikethroughCount > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

func (renderer *markdownRenderer) faint(content string) string {
	return renderer.newStyle().Foreground(renderer.theme.FaintText).Render(content)
}

// highlightCode syntax-highlights code with chroma; unknown languages
// and chroma errors fall back to faint plain text.
func (renderer *markdownRenderer) highlightCode(code, language string) string {
	if language == "" {
		return renderer.faint(code)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return renderer.faint(code)
	}
	return buffer.String()
}

func (renderer *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			renderer.inline.Reset()
		} else {
			content := renderer.inline.String()
			renderer.inline.Reset()
			renderer.emitBlock(content, !renderer.inTightList())
		}

	case *ast.Heading:
		if entering {
			renderer.inline.Reset()
			return ast.WalkContinue, nil
		}
		content := ansi.Strip(renderer.inline.String())
		renderer.inline.Reset()
		style := renderer.newStyle().Bold(true).Foreground(renderer.theme.NormalText)
		if node.Level <= 2 {
			style = style.Foreground(renderer.theme.HeaderForeground).Underline(node.Level == 1)
		}
		renderer.ensureBlankLine()
		renderer.emitBlock(style.Render(content), true)

	case *ast.FencedCodeBlock:
		if entering {
			renderer.renderCode(node.Lines(), string(node.Language(renderer.source)))
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if entering {
			renderer.renderCode(node.Lines(), "")
		}
		return ast.WalkSkipChildren, nil

	case *ast.Blockquote:
		if entering {
			renderer.prefixes = append(renderer.prefixes, renderer.faint("│ "))
		} else {
			renderer.prefixes = renderer.prefixes[:len(renderer.prefixes)-1]
			renderer.ensureBlankLine()
		}

	case *ast.List:
		if entering {
			renderer.lists = append(renderer.lists, listState{ordered: node.IsOrdered(), counter: node.Start, tight: node.IsTight})
		} else {
			renderer.lists = renderer.lists[:len(renderer.lists)-1]
			if !renderer.inTightList() {
				renderer.ensureBlankLine()
			}
		}

	case *ast.ListItem:
		renderer.handleListItem(entering)

	case *ast.ThematicBreak:
		if entering {
			rule := renderer.newStyle().Foreground(renderer.theme.BorderColor).Render(strings.Repeat("─", renderer.currentWidth()))
			renderer.ensureBlankLine()
			renderer.emitBlock(rule, true)
		}

	case *ast.HTMLBlock:
		if entering {
			var html strings.Builder
			for index := 0; index < node.Lines().Len(); index++ {
				segment := node.Lines().At(index)
				html.Write(segment.Value(renderer.source))
			}
			renderer.emitBlock(renderer.faint(strings.TrimSpace(stripHTMLTags(html.String()))), true)
		}
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if entering {
			renderer.inline.WriteString(renderer.styledText(string(node.Segment.Value(renderer.source))))
			switch {
			case node.HardLineBreak():
				renderer.inline.WriteString("\n")
			case node.SoftLineBreak():
				renderer.inline.WriteString(" ")
			}
		}

	case *ast.String:
		if entering {
			renderer.inline.WriteString(renderer.styledText(string(node.Value)))
		}

	case *ast.Emphasis:
		delta := 1
		if !entering {
			delta = -1
		}
		if node.Level >= 2 {
			renderer.boldCount += delta
		} else {
			renderer.italicCount += delta
		}

	case *ast.CodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(renderer.source))
				}
			}
			renderer.inline.WriteString(renderer.newStyle().Foreground(renderer.theme.MatchForeground).Render(code.String()))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if entering {
			var label strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					label.Write(textNode.Segment.Value(renderer.source))
				}
			}
			link := renderer.newStyle().Foreground(renderer.theme.LinkForeground).Underline(true)
			renderer.inline.WriteString(link.Render(label.String()))
			if destination := string(node.Destination); destination != "" && destination != label.String() {
				renderer.inline.WriteString(" " + renderer.faint("("+destination+")"))
			}
		}
		return ast.WalkSkipChildren, nil

	case *ast.AutoLink:
		if entering {
			link := renderer.newStyle().Foreground(renderer.theme.LinkForeground).Underline(true)
			renderer.inline.WriteString(link.Render(string(node.URL(renderer.source))))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Image:
		if entering {
			renderer.inline.WriteString(renderer.faint("[image: " + string(node.Destination) + "]"))
		}
		return ast.WalkSkipChildren, nil

	case *ast.RawHTML:
		if entering {
			var html strings.Builder
			for index := 0; index < node.Segments.Len(); index++ {
				segment := node.Segments.At(index)
				html.Write(segment.Value(renderer.source))
			}
			renderer.inline.WriteString(renderer.faint(stripHTMLTags(html.String())))
		}
		return ast.WalkSkipChildren, nil

	case *extast.Strikethrough:
		if entering {
			renderer.strikethroughCount++
		} else {
			renderer.strikethroughCount--
		}

	case *extast.TaskCheckBox:
		if entering {
			if node.IsChecked {
				renderer.inline.WriteString(renderer.newStyle().Foreground(renderer.theme.StatusDone).Render("[x]") + " ")
			} else {
				renderer.inline.WriteString(renderer.styledText("[ ] "))
			}
		}
	}
	return ast.WalkContinue, nil
}

func (renderer *markdownRenderer) handleListItem(entering bool) {
	if len(renderer.lists) == 0 {
		return
	}
	if !entering {
		renderer.prefixes = renderer.prefixes[:len(renderer.prefixes)-1]
		if renderer.inTightList() {
			renderer.ensureNewline()
		} else {
			renderer.ensureBlankLine()
		}
		return
	}

	top := &renderer.lists[len(renderer.lists)-1]
	bullet := "• "
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	}
	renderer.pendingBullet = renderer.linePrefix() + bullet
	renderer.prefixes = append(renderer.prefixes, strings.Repeat(" ", ansi.StringWidth(bullet)))
}

func (renderer *markdownRenderer) renderCode(lines *text.Segments, language string) {
	var code strings.Builder
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		code.Write(segment.Value(renderer.source))
	}
	highlighted := renderer.highlightCode(strings.TrimRight(code.String(), "\n"), language)

	renderer.ensureBlankLine()
	prefix := renderer.linePrefix() + "  "
	for _, line := range strings.Split(strings.TrimRight(highlighted, "\n"), "\n") {
		renderer.writeOutput(prefix + line + "\n")
	}
	renderer.ensureBlankLine()
}

// stripHTMLTags drops everything between angle brackets.
func stripHTMLTags(html string) string {
	var result strings.Builder
	inTag := false
	for _, character := range html {
		switch {
		case character == '<':
			inTag = true
		case character == '>':
			inTag = false
		case !inTag:
			result.WriteRune(character)
		}
	}
	return result.String()
}
