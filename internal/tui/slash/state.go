package slash

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
)

// UnknownCommandMessage 是无法识别命令时的提示。
const UnknownCommandMessage = "unknown command, type / to list commands"

// Options 控制 Slash 弹窗。
type Options struct {
	MaxLines int
}

// Input 表示当前文本与光标状态。
type Input struct {
	Value        string
	CursorLine   int
	CursorColumn int
	Blocked      bool // 会话选择器打开时屏蔽 slash
}

// ActionKind 描述按键触发后的处理类型。
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionClose
	ActionInsert
	ActionSubmitCommand
	ActionSubmitStarter
	ActionError
)

// Action 汇总 Slash 处理结果。
type Action struct {
	Kind         ActionKind
	Command      Command
	NewValue     string
	CursorColumn int
	SubmitText   string
	Args         string
	Message      string
}

// State 维护 slash 弹窗的匹配与选择状态。
type State struct {
	items    []Item
	matches  []match
	selected int
	open     bool
	input    parsedInput
	maxLines int
}

type match struct {
	item       Item
	highlights []int
	score      int
}

type parsedInput struct {
	rest  string
	token tokenInfo
}

type tokenInfo struct {
	found  bool
	active bool
	value  string
	end    int
	args   string
}

// NewState 构造 slash 状态机。
func NewState(opts Options) *State {
	maxLines := opts.MaxLines
	if maxLines <= 0 {
		maxLines = 8
	}
	items := builtinItems()
	items = append(items, starterItems()...)
	return &State{items: items, maxLines: maxLines}
}

// Open 返回弹窗是否展示。
func (s *State) Open() bool {
	return s != nil && s.open
}

// Close 关闭弹窗。
func (s *State) Close() {
	if s == nil {
		return
	}
	s.open = false
	s.matches = nil
}

// SyncInput 根据最新文本同步过滤列表与选中项。
func (s *State) SyncInput(in Input) {
	if s == nil {
		return
	}
	s.input = parseInput(in)
	s.open = s.input.token.found && s.input.token.active && !in.Blocked && in.CursorLine == 0
	if !s.open {
		s.matches = nil
		return
	}
	s.matches = filterMatches(s.items, s.input.token.value)
	if s.selected >= len(s.matches) {
		s.selected = 0
	}
}

// ResolveSubmit 按 Enter 行为解析当前输入，不依赖弹窗是否打开。
// 非 / 开头的文本返回 ActionNone，调用方按普通消息发送。
func (s *State) ResolveSubmit(value string) Action {
	p := parseInput(Input{Value: value, CursorColumn: runeLen(firstLine(value))})
	if !p.token.found || p.token.value == "" {
		return Action{Kind: ActionNone}
	}
	item, ok := s.findExactItem(p.token.value)
	if !ok {
		return Action{Kind: ActionError, Message: UnknownCommandMessage}
	}
	return actionForItem(item, TriggerEnter, p)
}

// HandleKey 处理键盘事件，返回对应动作。
func (s *State) HandleKey(msg string) (Action, bool) {
	if s == nil || !s.open {
		return Action{}, false
	}
	switch msg {
	case "up", "ctrl+p":
		if len(s.matches) == 0 {
			return Action{Kind: ActionClose}, true
		}
		s.selected--
		if s.selected < 0 {
			s.selected = len(s.matches) - 1
		}
		return Action{Kind: ActionNone}, true
	case "down", "ctrl+n":
		if len(s.matches) == 0 {
			return Action{Kind: ActionClose}, true
		}
		s.selected++
		if s.selected >= len(s.matches) {
			s.selected = 0
		}
		return Action{Kind: ActionNone}, true
	case "esc":
		s.open = false
		return Action{Kind: ActionClose}, true
	case "tab", "enter":
		if len(s.matches) == 0 {
			return Action{Kind: ActionError, Message: UnknownCommandMessage}, true
		}
		trigger := TriggerTab
		if msg == "enter" {
			trigger = TriggerEnter
		}
		act := actionForItem(s.matches[s.selected].item, trigger, s.input)
		if act.Kind == ActionSubmitCommand || act.Kind == ActionSubmitStarter {
			s.open = false
		}
		return act, true
	default:
		return Action{}, false
	}
}

type Trigger int

const (
	TriggerTab Trigger = iota + 1
	TriggerEnter
)

func actionForItem(item Item, trigger Trigger, input parsedInput) Action {
	if item.Kind == ItemStarter {
		if item.Starter == nil {
			return Action{Kind: ActionNone}
		}
		text := item.Starter.Text
		if trigger == TriggerTab {
			// Tab 把开场白放进输入框以便修改
			return Action{Kind: ActionInsert, NewValue: text, CursorColumn: runeLen(text)}
		}
		return Action{Kind: ActionSubmitStarter, SubmitText: text}
	}
	switch trigger {
	case TriggerTab:
		return Action{
			Kind:         ActionInsert,
			NewValue:     buildCommandValue(item.Command, input),
			CursorColumn: runeLen("/"+string(item.Command)) + 1,
		}
	case TriggerEnter:
		return Action{Kind: ActionSubmitCommand, Command: item.Command, Args: input.token.args}
	default:
		return Action{Kind: ActionNone}
	}
}

func (s *State) findExactItem(token string) (Item, bool) {
	for _, item := range s.items {
		if strings.EqualFold(item.Token(), token) {
			return item, true
		}
	}
	return Item{}, false
}

func filterMatches(items []Item, query string) []match {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		matches := make([]match, 0, len(items))
		for _, item := range items {
			matches = append(matches, match{item: item})
		}
		return matches
	}

	candidates, keys := buildCandidates(items)
	results := fuzzy.Find(strings.ToLower(trimmed), keys)
	seen := map[int]bool{}
	matches := make([]match, 0, len(results))
	for _, res := range results {
		cand := candidates[res.Index]
		if seen[cand.itemIdx] {
			continue
		}
		seen[cand.itemIdx] = true
		item := items[cand.itemIdx]
		matches = append(matches, match{
			item:       item,
			highlights: adjustHighlights(res.MatchedIndexes, highlightOffset(item.Token(), cand.key)),
			score:      res.Score,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score == matches[j].score {
			return matches[i].item.Token() < matches[j].item.Token()
		}
		return matches[i].score > matches[j].score
	})
	return matches
}

type candidate struct {
	itemIdx int
	key     string
}

func buildCandidates(items []Item) ([]candidate, []string) {
	candidates := make([]candidate, 0, len(items)*2)
	keys := make([]string, 0, len(items)*2)
	for idx, item := range items {
		token := strings.ToLower(item.Token())
		if token == "" {
			continue
		}
		candidates = append(candidates, candidate{itemIdx: idx, key: token})
		keys = append(keys, token)
		// 开场白允许按去掉 starter: 前缀的名字匹配
		if item.Kind == ItemStarter {
			if _, name, ok := strings.Cut(token, ":"); ok && name != "" {
				candidates = append(candidates, candidate{itemIdx: idx, key: name})
				keys = append(keys, name)
			}
		}
	}
	return candidates, keys
}

func highlightOffset(token string, key string) int {
	if key == "" {
		return 0
	}
	token = strings.ToLower(token)
	key = strings.ToLower(key)
	if strings.HasSuffix(token, key) {
		return runeLen(token) - runeLen(key)
	}
	return 0
}

func adjustHighlights(indexes []int, offset int) []int {
	if offset == 0 || len(indexes) == 0 {
		return indexes
	}
	out := make([]int, len(indexes))
	for i, idx := range indexes {
		out[i] = idx + offset
	}
	return out
}

func buildCommandValue(cmd Command, input parsedInput) string {
	token := "/" + string(cmd)
	args := strings.TrimSpace(input.token.args)
	if args != "" {
		return token + " " + args + input.rest
	}
	return token + " " + input.rest
}

func parseInput(in Input) parsedInput {
	first, rest := splitFirstLine(in.Value)
	return parsedInput{
		rest:  rest,
		token: locateToken([]rune(first), in.CursorColumn),
	}
}

func splitFirstLine(value string) (string, string) {
	if idx := strings.IndexByte(value, '\n'); idx >= 0 {
		return value[:idx], value[idx:]
	}
	return value, ""
}

func firstLine(value string) string {
	line, _ := splitFirstLine(value)
	return line
}

func locateToken(runes []rune, cursor int) tokenInfo {
	if len(runes) == 0 || runes[0] != '/' {
		return tokenInfo{}
	}
	token := tokenInfo{found: true, end: len(runes)}
	for i := 1; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			token.end = i
			break
		}
		// 像路径的输入（/usr/bin）不当作命令
		if runes[i] == '/' {
			return tokenInfo{}
		}
	}
	token.value = string(runes[1:token.end])
	token.args = strings.TrimSpace(string(runes[token.end:]))
	token.active = cursor <= token.end
	return token
}

func runeLen(text string) int {
	return len([]rune(text))
}

func builtinItems() []Item {
	return []Item{
		{Kind: ItemBuiltin, Command: CommandNew, Description: "start a new conversation"},
		{Kind: ItemBuiltin, Command: CommandChats, Description: "switch conversation"},
		{Kind: ItemBuiltin, Command: CommandDelete, Description: "delete the active conversation"},
		{Kind: ItemBuiltin, Command: CommandRetry, Description: "retry the latest failed reply"},
		{Kind: ItemBuiltin, Command: CommandDemo, Description: "toggle sample conversations"},
		{Kind: ItemBuiltin, Command: CommandCopy, Description: "copy the latest reply"},
		{Kind: ItemBuiltin, Command: CommandExport, Description: "export the conversation (md|json)"},
		{Kind: ItemBuiltin, Command: CommandStatus, Description: "show agent and session status"},
		{Kind: ItemBuiltin, Command: CommandHelp, Description: "list commands"},
		{Kind: ItemBuiltin, Command: CommandQuit, Description: "exit"},
		{Kind: ItemBuiltin, Command: CommandExit, Description: "exit"},
	}
}

func starterItems() []Item {
	items := make([]Item, 0, len(Starters))
	for i := range Starters {
		st := Starters[i]
		items = append(items, Item{Kind: ItemStarter, Starter: &st, Description: st.Text})
	}
	return items
}
