package view

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nlorenzo/facturo/internal/billing"
)

type docsState int

const (
	docsStateList docsState = iota
	docsStateTransition
)

// docItem wraps a document to implement list.Item.
type docItem struct {
	doc *billing.Document
}

func (i docItem) Title() string {
	status := lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("[%s]", i.doc.Status))

	return fmt.Sprintf("%s  %s  %s  %s",
		i.doc.Number, FormatDate(i.doc.IssueDate), FormatMoney(i.doc.GrandTotal), status)
}

func (i docItem) Description() string {
	return fmt.Sprintf("Due: %s  |  %d lines", FormatDate(i.doc.DueDate), len(i.doc.Lines))
}

func (i docItem) FilterValue() string {
	return i.doc.Number
}

type DocumentsModel struct {
	CommonModel
	billingService *billing.Service
	kind           billing.Kind

	state docsState
	list  list.Model
	form  *huh.Form
	docs  []*billing.Document

	selectedDoc *billing.Document
	formStatus  string

	loading bool
	status  string
}

func NewDocumentsModel(billingSvc *billing.Service, kind billing.Kind) DocumentsModel {
	l := list.New([]list.Item{}, docItemDelegate{}, 0, 0)
	l.Title = titleFor(kind)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)

	return DocumentsModel{
		billingService: billingSvc,
		kind:           kind,
		list:           l,
	}
}

func titleFor(kind billing.Kind) string {
	if kind == billing.KindOrder {
		return "Orders"
	}

	return "Invoices"
}

func (m DocumentsModel) Title() string { return titleFor(m.kind) }

func (m DocumentsModel) ShortHelp() string {
	switch m.state {
	case docsStateList:
		return "Esc: back | Enter: change status | x: delete | o: mark overdue | r: reload | /: filter"
	case docsStateTransition:
		return "Esc: cancel | Enter: confirm"
	}

	return ""
}

func (m DocumentsModel) Init() tea.Cmd {
	m.loading = true
	return m.loadDocsCmd()
}

func (m DocumentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDocsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.docs = msg.docs
		m.refreshListItems()

		if len(msg.docs) == 0 {
			m.status = "No documents found."
		}

		return m, nil

	case docActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			m.state = docsStateList

			return m, nil
		}

		m.status = msg.result
		m.state = docsStateList

		return m, m.loadDocsCmd()

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil
	}

	switch m.state {
	case docsStateList:
		return m.updateList(msg)
	case docsStateTransition:
		return m.updateTransition(msg)
	}

	return m, nil
}

func (m DocumentsModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.list.FilterState() != list.Filtering {
			switch keyMsg.String() {
			case "esc":
				return m, Back
			case "enter":
				return m.startTransition()
			case "x":
				return m.deleteSelected()
			case "o":
				m.status = "Sweeping overdue documents..."
				return m, m.markOverdueCmd()
			case "r":
				m.loading = true
				return m, m.loadDocsCmd()
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m DocumentsModel) startTransition() (tea.Model, tea.Cmd) {
	selected, ok := m.list.SelectedItem().(docItem)
	if !ok {
		return m, nil
	}

	targets := transitionTargets(selected.doc.Status)
	if len(targets) == 0 {
		m.status = fmt.Sprintf("%s is final, no transitions available", selected.doc.Status)
		return m, nil
	}

	options := make([]huh.Option[string], len(targets))
	for i, t := range targets {
		options[i] = huh.NewOption(string(t), string(t))
	}

	m.selectedDoc = selected.doc
	m.formStatus = string(targets[0])

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("status").
				Title(fmt.Sprintf("New status for %s", selected.doc.Number)).
				Options(options...).
				Value(&m.formStatus),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = docsStateTransition

	return m, m.form.Init()
}

func transitionTargets(from billing.Status) []billing.Status {
	all := []billing.Status{
		billing.StatusPending,
		billing.StatusPaid,
		billing.StatusOverdue,
		billing.StatusCancelled,
	}

	var targets []billing.Status

	for _, to := range all {
		if billing.CanTransition(from, to) {
			targets = append(targets, to)
		}
	}

	return targets
}

func (m DocumentsModel) updateTransition(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = docsStateList
			m.form = nil

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.transitionCmd()
}

func (m DocumentsModel) deleteSelected() (tea.Model, tea.Cmd) {
	selected, ok := m.list.SelectedItem().(docItem)
	if !ok {
		return m, nil
	}

	id := selected.doc.ID
	number := selected.doc.Number
	svc := m.billingService

	return m, func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := svc.Delete(ctx, id); err != nil {
			return docActionMsg{err: err}
		}

		return docActionMsg{result: fmt.Sprintf("Deleted %s.", number)}
	}
}

func (m DocumentsModel) View() string {
	switch m.state {
	case docsStateList:
		if m.loading {
			return lipgloss.NewStyle().Padding(2).Render("Loading documents...")
		}

		statusLine := ""
		if m.status != "" {
			statusLine = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n"
		}

		return lipgloss.NewStyle().Padding(1).Render(statusLine + m.list.View())

	case docsStateTransition:
		if m.form == nil {
			return ""
		}

		return lipgloss.NewStyle().Padding(1).Render(
			m.docInfoView() + "\n" + m.form.View(),
		)
	}

	return ""
}

func (m DocumentsModel) docInfoView() string {
	if m.selectedDoc == nil {
		return ""
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Render(fmt.Sprintf(
			"%s  |  Issued: %s  Due: %s\nSubtotal: %s  Tax: %s  Total: %s",
			m.selectedDoc.Number,
			FormatDate(m.selectedDoc.IssueDate),
			FormatDate(m.selectedDoc.DueDate),
			FormatMoney(m.selectedDoc.Subtotal),
			FormatMoney(m.selectedDoc.TaxTotal),
			FormatMoney(m.selectedDoc.GrandTotal),
		))
}

func (m *DocumentsModel) refreshListItems() {
	items := make([]list.Item, len(m.docs))
	for i, doc := range m.docs {
		items[i] = docItem{doc: doc}
	}

	m.list.SetItems(items)
}

// Messages

type loadDocsMsg struct {
	docs []*billing.Document
	err  error
}

func (m DocumentsModel) loadDocsCmd() tea.Cmd {
	kind := m.kind
	svc := m.billingService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		docs, err := svc.List(ctx, billing.ListFilter{Kind: &kind})

		return loadDocsMsg{docs: docs, err: err}
	}
}

type docActionMsg struct {
	result string
	err    error
}

func (m DocumentsModel) transitionCmd() tea.Cmd {
	doc := m.selectedDoc
	target := billing.Status(m.formStatus)
	svc := m.billingService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if _, err := svc.Transition(ctx, doc.ID, target); err != nil {
			return docActionMsg{err: err}
		}

		return docActionMsg{result: fmt.Sprintf("%s is now %s.", doc.Number, target)}
	}
}

func (m DocumentsModel) markOverdueCmd() tea.Cmd {
	svc := m.billingService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		marked, err := svc.MarkOverdue(ctx)
		if err != nil {
			return docActionMsg{err: err}
		}

		return docActionMsg{result: fmt.Sprintf("Marked %d documents overdue.", marked)}
	}
}

// docItemDelegate renders items in the list.
type docItemDelegate struct{}

func (d docItemDelegate) Height() int                             { return 2 }
func (d docItemDelegate) Spacing() int                            { return 0 }
func (d docItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d docItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(docItem)
	if !ok {
		return
	}

	title := i.Title()
	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "    %s\n", lipgloss.NewStyle().Faint(true).Render(i.Description()))
}
