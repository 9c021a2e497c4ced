package view

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/nlorenzo/facturo/internal/billing"
	"github.com/nlorenzo/facturo/internal/catalog"
	"github.com/nlorenzo/facturo/internal/party"
)

type newDocState int

const (
	newDocStateLoading newDocState = iota
	newDocStateForm
	newDocStateDone
)

// NewDocumentModel drives the create form for one document kind. The first
// line item is captured in the form; further lines are attached over the API.
type NewDocumentModel struct {
	CommonModel
	billingService *billing.Service
	partyService   *party.Service
	catalogService *catalog.Service
	kind           billing.Kind

	state newDocState
	form  *huh.Form

	clients []*party.Client
	entries []*catalog.Entry

	formClient    string
	formEntry     string
	formQty       string
	formNotes     string
	formTaxExempt bool

	status string
}

func NewNewDocumentModel(
	billingSvc *billing.Service,
	partySvc *party.Service,
	catalogSvc *catalog.Service,
	kind billing.Kind,
) NewDocumentModel {
	return NewDocumentModel{
		billingService: billingSvc,
		partyService:   partySvc,
		catalogService: catalogSvc,
		kind:           kind,
		formQty:        "1",
	}
}

func (m NewDocumentModel) Title() string {
	if m.kind == billing.KindOrder {
		return "New Order"
	}

	return "New Invoice"
}

func (m NewDocumentModel) ShortHelp() string {
	return "Esc: back | Enter/Tab: navigate form"
}

func (m NewDocumentModel) Init() tea.Cmd {
	return m.loadRefsCmd()
}

type loadRefsMsg struct {
	clients []*party.Client
	entries []*catalog.Entry
	err     error
}

func (m NewDocumentModel) loadRefsCmd() tea.Cmd {
	partySvc := m.partyService
	catalogSvc := m.catalogService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		clients, err := partySvc.List(ctx, true)
		if err != nil {
			return loadRefsMsg{err: err}
		}

		entries, err := catalogSvc.List(ctx, true)
		if err != nil {
			return loadRefsMsg{err: err}
		}

		return loadRefsMsg{clients: clients, entries: entries}
	}
}

type createDocMsg struct {
	doc *billing.Document
	err error
}

func (m NewDocumentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadRefsMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			m.state = newDocStateDone

			return m, nil
		}

		if len(msg.clients) == 0 || len(msg.entries) == 0 {
			m.status = "Need at least one active client and one catalog entry."
			m.state = newDocStateDone

			return m, nil
		}

		m.clients = msg.clients
		m.entries = msg.entries

		return m.buildForm()

	case createDocMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Created %s for %s.", msg.doc.Number, FormatMoney(msg.doc.GrandTotal))
		}

		m.state = newDocStateDone

		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.state == newDocStateDone {
			return m, Back
		}

		if keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.state != newDocStateForm || m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.createCmd()
}

func (m NewDocumentModel) buildForm() (tea.Model, tea.Cmd) {
	clientOptions := make([]huh.Option[string], len(m.clients))
	for i, c := range m.clients {
		clientOptions[i] = huh.NewOption(c.Name, c.ID.String())
	}

	entryOptions := make([]huh.Option[string], len(m.entries))
	for i, e := range m.entries {
		label := fmt.Sprintf("%s  %s (%s)", e.Code, e.Name, FormatMoney(e.Price))
		entryOptions[i] = huh.NewOption(label, e.ID.String())
	}

	m.formClient = m.clients[0].ID.String()
	m.formEntry = m.entries[0].ID.String()

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("client").
				Title("Client").
				Options(clientOptions...).
				Value(&m.formClient),

			huh.NewSelect[string]().
				Key("entry").
				Title("Catalog entry").
				Options(entryOptions...).
				Value(&m.formEntry),

			huh.NewInput().
				Key("quantity").
				Title("Quantity").
				Value(&m.formQty).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 {
						return fmt.Errorf("quantity must be a positive integer")
					}
					return nil
				}),

			huh.NewInput().
				Key("notes").
				Title("Notes (optional)").
				Value(&m.formNotes),

			huh.NewConfirm().
				Key("tax_exempt").
				Title("Tax exempt?").
				Affirmative("Yes").
				Negative("No").
				Value(&m.formTaxExempt),
		),
	).WithWidth(60).WithShowHelp(false)

	m.state = newDocStateForm

	return m, m.form.Init()
}

func (m NewDocumentModel) createCmd() tea.Cmd {
	kind := m.kind
	notes := m.formNotes
	taxExempt := m.formTaxExempt
	svc := m.billingService

	clientID, err := uuid.Parse(m.formClient)
	if err != nil {
		return func() tea.Msg { return createDocMsg{err: err} }
	}

	entryID, err := uuid.Parse(m.formEntry)
	if err != nil {
		return func() tea.Msg { return createDocMsg{err: err} }
	}

	qty, err := strconv.Atoi(m.formQty)
	if err != nil {
		return func() tea.Msg { return createDocMsg{err: err} }
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		doc, err := svc.Create(ctx, billing.CreateParams{
			Kind:      kind,
			ClientID:  clientID,
			TaxExempt: taxExempt,
			Notes:     notes,
			Lines: []billing.LineItemSpec{
				{ReferenceID: entryID, Quantity: qty},
			},
		})

		return createDocMsg{doc: doc, err: err}
	}
}

func (m NewDocumentModel) View() string {
	switch m.state {
	case newDocStateLoading:
		return lipgloss.NewStyle().Padding(2).Render("Loading clients and catalog...")

	case newDocStateForm:
		if m.form == nil {
			return ""
		}

		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case newDocStateDone:
		return lipgloss.NewStyle().Padding(2).Render(
			m.status + "\n\nPress any key to go back.",
		)
	}

	return ""
}
