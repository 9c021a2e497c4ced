package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/nlorenzo/facturo/cmd/tui/internal/view"
	"github.com/nlorenzo/facturo/internal/billing"
	billingStore "github.com/nlorenzo/facturo/internal/billing/store"
	"github.com/nlorenzo/facturo/internal/catalog"
	catalogStore "github.com/nlorenzo/facturo/internal/catalog/store"
	"github.com/nlorenzo/facturo/internal/config"
	"github.com/nlorenzo/facturo/internal/database"
	"github.com/nlorenzo/facturo/internal/party"
	partyStore "github.com/nlorenzo/facturo/internal/party/store"
)

type model struct {
	billingService *billing.Service
	partyService   *party.Service
	catalogService *catalog.Service

	currentView View

	invoicesView   view.DocumentsModel
	ordersView     view.DocumentsModel
	newInvoiceView view.NewDocumentModel
	newOrderView   view.NewDocumentModel
}

type View int

const (
	ViewMenu       View = 0
	ViewInvoices   View = 1
	ViewOrders     View = 2
	ViewNewInvoice View = 3
	ViewNewOrder   View = 4
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	catalogSvc := catalog.NewService(catalogStore.New(db))
	partySvc := party.NewService(partyStore.New(db))
	billingSvc := billing.NewService(billingStore.New(db), catalogSvc, partySvc)

	return model{
		billingService: billingSvc,
		partyService:   partySvc,
		catalogService: catalogSvc,
		currentView:    ViewMenu,
		invoicesView:   view.NewDocumentsModel(billingSvc, billing.KindInvoice),
		ordersView:     view.NewDocumentsModel(billingSvc, billing.KindOrder),
		newInvoiceView: view.NewNewDocumentModel(billingSvc, partySvc, catalogSvc, billing.KindInvoice),
		newOrderView:   view.NewNewDocumentModel(billingSvc, partySvc, catalogSvc, billing.KindOrder),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewInvoices
				m.invoicesView = view.NewDocumentsModel(m.billingService, billing.KindInvoice)

				return m, m.invoicesView.Init()
			case "2":
				m.currentView = ViewOrders
				m.ordersView = view.NewDocumentsModel(m.billingService, billing.KindOrder)

				return m, m.ordersView.Init()
			case "3":
				m.currentView = ViewNewInvoice
				m.newInvoiceView = view.NewNewDocumentModel(m.billingService, m.partyService, m.catalogService, billing.KindInvoice)

				return m, m.newInvoiceView.Init()
			case "4":
				m.currentView = ViewNewOrder
				m.newOrderView = view.NewNewDocumentModel(m.billingService, m.partyService, m.catalogService, billing.KindOrder)

				return m, m.newOrderView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewInvoices:
		var newModel tea.Model
		newModel, cmd = m.invoicesView.Update(msg)
		m.invoicesView = newModel.(view.DocumentsModel)
	case ViewOrders:
		var newModel tea.Model
		newModel, cmd = m.ordersView.Update(msg)
		m.ordersView = newModel.(view.DocumentsModel)
	case ViewNewInvoice:
		var newModel tea.Model
		newModel, cmd = m.newInvoiceView.Update(msg)
		m.newInvoiceView = newModel.(view.NewDocumentModel)
	case ViewNewOrder:
		var newModel tea.Model
		newModel, cmd = m.newOrderView.Update(msg)
		m.newOrderView = newModel.(view.NewDocumentModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Facturo TUI\n\n" +
				"1. Invoices\n" +
				"2. Orders\n" +
				"3. New Invoice\n" +
				"4. New Order\n\n" +
				"q. Quit",
		)
	case ViewInvoices:
		return m.invoicesView.View()
	case ViewOrders:
		return m.ordersView.View()
	case ViewNewInvoice:
		return m.newInvoiceView.View()
	case ViewNewOrder:
		return m.newOrderView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
