package slash

import "strings"

// Command 表示内置斜杠命令的标识符。
type Command string

const (
	CommandNew    Command = "new"
	CommandChats  Command = "chats"
	CommandDelete Command = "delete"
	CommandRetry  Command = "retry"
	CommandDemo   Command = "demo"
	CommandCopy   Command = "copy"
	CommandExport Command = "export"
	CommandStatus Command = "status"
	CommandHelp   Command = "help"
	CommandQuit   Command = "quit"
	CommandExit   Command = "exit"
)

// ItemKind 区分内置命令与建议的开场白。
type ItemKind int

const (
	ItemBuiltin ItemKind = iota + 1
	ItemStarter
)

// Item 代表弹窗中的一行条目。
type Item struct {
	Kind        ItemKind
	Command     Command
	Starter     *Starter
	Description string
}

// Token 返回无前导斜杠的匹配键。
func (i Item) Token() string {
	switch i.Kind {
	case ItemStarter:
		if i.Starter != nil {
			return i.Starter.Token()
		}
	default:
		return string(i.Command)
	}
	return ""
}

// DisplayName 返回带前缀斜杠的展示名称。
func (i Item) DisplayName() string {
	token := i.Token()
	if token == "" {
		return ""
	}
	if strings.HasPrefix(token, "/") {
		return token
	}
	return "/" + token
}

// Starter 是空会话时建议的开场白。
type Starter struct {
	Name string
	Text string
}

// Token 生成 `starter:name` 形式的匹配键。
func (s Starter) Token() string {
	return "starter:" + s.Name
}

// Starters 与空状态页展示的顺序一致。
var Starters = []Starter{
	{Name: "help", Text: "What can you help me with?"},
	{Name: "interesting", Text: "Tell me something interesting"},
	{Name: "brainstorm", Text: "Help me brainstorm ideas"},
}

// Help 返回命令说明（/help 与 REPL 共用）。
func Help() []string {
	items := builtinItems()
	out := make([]string, 0, len(items)+len(Starters))
	for _, item := range items {
		out = append(out, item.DisplayName()+"  "+item.Description)
	}
	for _, st := range Starters {
		out = append(out, "/"+st.Token()+"  "+st.Text)
	}
	return out
}
