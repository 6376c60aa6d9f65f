package notion

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jomei/notionapi"
)

// BlockNode 자식 블록까지 포함한 블록 트리의 노드
type BlockNode struct {
	Block    notionapi.Block
	Children []*BlockNode
}

// ToMarkdown 블록 트리를 하나의 마크다운 문자열로 변환합니다
func ToMarkdown(nodes []*BlockNode) string {
	md := renderNodes(nodes, "")
	if md == "" {
		return ""
	}
	return md + "\n"
}

// renderNodes 같은 레벨의 블록들을 이어 붙입니다.
// 연속된 리스트 항목은 한 줄 간격, 나머지 블록은 빈 줄로 구분합니다.
func renderNodes(nodes []*BlockNode, indent string) string {
	var b strings.Builder
	var prevList bool
	number := 0

	for _, node := range nodes {
		_, isNumbered := node.Block.(*notionapi.NumberedListItemBlock)
		if isNumbered {
			number++
		} else {
			number = 0
		}

		text := renderNode(node, indent, number)
		if text == "" {
			continue
		}

		isList := isListItem(node.Block)
		if b.Len() > 0 {
			if prevList && isList {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(text)
		prevList = isList
	}

	return b.String()
}

func isListItem(block notionapi.Block) bool {
	switch block.(type) {
	case *notionapi.BulletedListItemBlock, *notionapi.NumberedListItemBlock, *notionapi.ToDoBlock:
		return true
	}
	return false
}

// renderNode 블록 하나(와 자식 블록)를 마크다운으로 변환합니다
func renderNode(node *BlockNode, indent string, number int) string {
	switch b := node.Block.(type) {
	case *notionapi.ParagraphBlock:
		return withChildren(indent+richTextToMarkdown(b.Paragraph.RichText), node.Children, indent)
	case *notionapi.Heading1Block:
		return indent + "# " + richTextToMarkdown(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		return indent + "## " + richTextToMarkdown(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return indent + "### " + richTextToMarkdown(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return listItem(indent, "- ", 2, richTextToMarkdown(b.BulletedListItem.RichText), node.Children)
	case *notionapi.NumberedListItemBlock:
		marker := fmt.Sprintf("%d. ", number)
		return listItem(indent, marker, len(marker), richTextToMarkdown(b.NumberedListItem.RichText), node.Children)
	case *notionapi.ToDoBlock:
		mark := " "
		if b.ToDo.Checked {
			mark = "x"
		}
		// 체크박스는 항목 내용의 일부라서 자식 들여쓰기는 "- " 기준
		return listItem(indent, fmt.Sprintf("- [%s] ", mark), 2, richTextToMarkdown(b.ToDo.RichText), node.Children)
	case *notionapi.ToggleBlock:
		summary := richTextToMarkdown(b.Toggle.RichText)
		inner := renderNodes(node.Children, "")
		return indent + "<details>\n" + indent + "<summary>" + summary + "</summary>\n\n" + inner + "\n\n" + indent + "</details>"
	case *notionapi.QuoteBlock:
		return quote(indent, richTextToMarkdown(b.Quote.RichText), node.Children)
	case *notionapi.CalloutBlock:
		return quote(indent, richTextToMarkdown(b.Callout.RichText), node.Children)
	case *notionapi.CodeBlock:
		lang := b.Code.Language
		if lang == "plain text" {
			lang = ""
		}
		code := plainText(b.Code.RichText)
		return indent + "```" + lang + "\n" + prefixLines(code, indent) + "\n" + indent + "```"
	case *notionapi.EquationBlock:
		return indent + "$$\n" + indent + b.Equation.Expression + "\n" + indent + "$$"
	case *notionapi.DividerBlock:
		return indent + "---"
	case *notionapi.ImageBlock:
		return indent + fmt.Sprintf("![%s](%s)", plainText(b.Image.Caption), fileURL(b.Image.File, b.Image.External))
	case *notionapi.VideoBlock:
		url := fileURL(b.Video.File, b.Video.External)
		caption := plainText(b.Video.Caption)
		if caption == "" {
			caption = url
		}
		return indent + fmt.Sprintf("[%s](%s)", caption, url)
	case *notionapi.BookmarkBlock:
		caption := plainText(b.Bookmark.Caption)
		if caption == "" {
			caption = b.Bookmark.URL
		}
		return indent + fmt.Sprintf("[%s](%s)", caption, b.Bookmark.URL)
	case *notionapi.ChildPageBlock:
		return indent + b.ChildPage.Title
	case *notionapi.TableBlock:
		return table(indent, node.Children)
	case *notionapi.TableRowBlock:
		// 테이블 행은 TableBlock 에서 처리
		return ""
	default:
		slog.Debug("처리하지 않는 블록 타입", "type", fmt.Sprintf("%T", node.Block))
		return ""
	}
}

// listItem 자식 블록은 리스트 마커 너비(width)만큼 들여씁니다
func listItem(indent, marker string, width int, text string, children []*BlockNode) string {
	line := indent + marker + text
	if len(children) == 0 {
		return line
	}
	inner := renderNodes(children, indent+strings.Repeat(" ", width))
	if inner == "" {
		return line
	}
	return line + "\n" + inner
}

func withChildren(line string, children []*BlockNode, indent string) string {
	if len(children) == 0 {
		return line
	}
	inner := renderNodes(children, indent)
	if inner == "" {
		return line
	}
	return line + "\n\n" + inner
}

func quote(indent, text string, children []*BlockNode) string {
	body := text
	if inner := renderNodes(children, ""); inner != "" {
		body += "\n\n" + inner
	}
	return prefixLines(body, indent+"> ")
}

func table(indent string, rows []*BlockNode) string {
	var lines []string
	for i, node := range rows {
		row, ok := node.Block.(*notionapi.TableRowBlock)
		if !ok {
			continue
		}
		cells := make([]string, 0, len(row.TableRow.Cells))
		for _, cell := range row.TableRow.Cells {
			cells = append(cells, strings.ReplaceAll(richTextToMarkdown(cell), "|", `\|`))
		}
		lines = append(lines, indent+"| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			sep := make([]string, len(cells))
			for j := range sep {
				sep[j] = "---"
			}
			lines = append(lines, indent+"| "+strings.Join(sep, " | ")+" |")
		}
	}
	return strings.Join(lines, "\n")
}

func prefixLines(text, prefix string) string {
	if prefix == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" && strings.TrimSpace(prefix) == "" {
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func fileURL(file, external *notionapi.FileObject) string {
	if file != nil && file.URL != "" {
		return file.URL
	}
	if external != nil {
		return external.URL
	}
	return ""
}

// plainText 서식 없이 텍스트만 이어 붙입니다
func plainText(runs []notionapi.RichText) string {
	var parts []string
	for _, rt := range runs {
		parts = append(parts, rt.PlainText)
	}
	return strings.Join(parts, "")
}

// richTextToMarkdown RichText 배열을 서식이 적용된 마크다운으로 변환합니다
func richTextToMarkdown(runs []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range runs {
		b.WriteString(annotate(rt))
	}
	return b.String()
}

func annotate(rt notionapi.RichText) string {
	text := rt.PlainText
	if rt.Equation != nil {
		return "$" + rt.Equation.Expression + "$"
	}
	if strings.TrimSpace(text) == "" {
		return text
	}

	// 앞뒤 공백은 강조 표시 바깥에 둬야 마크다운이 깨지지 않음
	core := strings.TrimSpace(text)
	start := strings.Index(text, core)
	lead, trail := text[:start], text[start+len(core):]

	if a := rt.Annotations; a != nil {
		if a.Code {
			core = "`" + core + "`"
		}
		if a.Bold {
			core = "**" + core + "**"
		}
		if a.Italic {
			core = "_" + core + "_"
		}
		if a.Strikethrough {
			core = "~~" + core + "~~"
		}
	}
	if rt.Href != "" {
		core = "[" + core + "](" + rt.Href + ")"
	}
	return lead + core + trail
}
