package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

const fence = "```"

var orderedPrefix = regexp.MustCompile(`^(\d+)\.\s`)

// Render 将原始文本转为文档。纯函数：相同输入总是得到相同输出。
func Render(text string) Document {
	if text == "" {
		return Document{}
	}
	var (
		blocks   []Block
		inFence  bool
		language string
		code     []string
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, fence) {
			if inFence {
				blocks = append(blocks, codeBlock(language, code))
				inFence, language, code = false, "", nil
				continue
			}
			inFence = true
			language = strings.TrimSpace(strings.TrimPrefix(trimmed, fence))
			code = nil
			continue
		}
		if inFence {
			code = append(code, line)
			continue
		}
		blocks = append(blocks, classify(line, trimmed))
	}
	// 未闭合的代码块仍按预格式化内容输出
	if inFence {
		blocks = append(blocks, codeBlock(language, code))
	}
	return Document{Blocks: blocks}
}

func codeBlock(language string, lines []string) Block {
	return Block{Kind: BlockCode, Language: language, Text: strings.Join(lines, "\n")}
}

func classify(line, trimmed string) Block {
	switch {
	case strings.HasPrefix(line, "### "):
		return heading(3, line[4:])
	case strings.HasPrefix(line, "## "):
		return heading(2, line[3:])
	case strings.HasPrefix(line, "# "):
		return heading(1, line[2:])
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
		rest := line[2:]
		return Block{Kind: BlockListItem, Text: rest, Spans: ParseInline(rest)}
	}
	if m := orderedPrefix.FindStringSubmatch(line); m != nil {
		rest := line[len(m[0]):]
		ordinal, err := strconv.Atoi(m[1])
		if err != nil {
			ordinal = 0
		}
		return Block{Kind: BlockOrderedItem, Ordinal: ordinal, Text: rest, Spans: ParseInline(rest)}
	}
	if trimmed == "" {
		return Block{Kind: BlockSpacer}
	}
	return Block{Kind: BlockParagraph, Text: line, Spans: ParseInline(line)}
}

func heading(level int, rest string) Block {
	return Block{Kind: BlockHeading, Level: level, Text: rest, Spans: ParseInline(rest)}
}
