package tui

import (
	"fmt"

	"agentchat/internal/conversation"
	"agentchat/internal/tui/render"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// conversationItem 是会话选择器中的一行。
type conversationItem struct {
	id       string
	title    string
	subtitle string
}

func (i conversationItem) FilterValue() string { return i.title }
func (i conversationItem) Title() string       { return i.title }
func (i conversationItem) Description() string { return i.subtitle }

func conversationItems(convs []conversation.Conversation, m *Model) []list.Item {
	now := m.clock()
	items := make([]list.Item, 0, len(convs))
	for _, c := range convs {
		preview := "no messages yet"
		if last, ok := c.LastMessage(); ok {
			preview = conversation.TitleFrom(last.Content)
		}
		items = append(items, conversationItem{
			id:       c.ID,
			title:    c.DisplayTitle(),
			subtitle: fmt.Sprintf("%s · %s", render.FormatTimestamp(c.CreatedAt, now), preview),
		})
	}
	return items
}

func (m *Model) openPicker() {
	convs := m.store.List()
	if len(convs) == 0 {
		m.setNotice("no conversations yet", false)
		return
	}
	m.picker.ResetFilter()
	m.picker.SetItems(conversationItems(convs, m))
	active := m.store.ActiveID()
	for i, c := range convs {
		if c.ID == active {
			m.picker.Select(i)
			break
		}
	}
	m.picking = true
	m.slash.Close()
}

func (m *Model) updatePicker(msg tea.KeyMsg) tea.Cmd {
	filtering := m.picker.FilterState() == list.Filtering
	if !filtering {
		switch msg.String() {
		case "enter":
			if sel, ok := m.picker.SelectedItem().(conversationItem); ok {
				if err := m.store.SetActive(sel.id); err != nil {
					m.setNotice(err.Error(), false)
				}
			}
			m.picking = false
			m.refreshTranscript()
			return nil
		case "esc", "q":
			m.picking = false
			return nil
		}
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return cmd
}
