package document

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nlorenzo/facturo/internal/billing"
)

// Handler serves one document kind; the router mounts an instance per kind
// so invoices and orders share the same surface.
type Handler struct {
	svc  *billing.Service
	kind billing.Kind
}

func NewHandler(svc *billing.Service, kind billing.Kind) *Handler {
	return &Handler{svc: svc, kind: kind}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/lines", h.attachLine)
	r.Put("/{id}/lines", h.replaceLines)
	r.Patch("/{id}/lines/{lineID}", h.updateLine)
	r.Delete("/{id}/lines/{lineID}", h.removeLine)
	r.Patch("/{id}/status", h.updateStatus)
}

type lineSpecRequest struct {
	ReferenceID    uuid.UUID        `json:"reference_id"`
	Quantity       int              `json:"quantity"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent,omitempty"`
	Description    string           `json:"description,omitempty"`
}

func (r lineSpecRequest) toSpec() billing.LineItemSpec {
	return billing.LineItemSpec{
		ReferenceID:    r.ReferenceID,
		Quantity:       r.Quantity,
		UnitPrice:      r.UnitPrice,
		TaxRatePercent: r.TaxRatePercent,
		Description:    r.Description,
	}
}

type createDocumentRequest struct {
	ClientID  uuid.UUID         `json:"client_id"`
	IssueDate time.Time         `json:"issue_date,omitempty"`
	DueDate   time.Time         `json:"due_date,omitempty"`
	TaxExempt bool              `json:"tax_exempt,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	Lines     []lineSpecRequest `json:"lines,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lines := make([]billing.LineItemSpec, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, l.toSpec())
	}

	doc, err := h.svc.Create(r.Context(), billing.CreateParams{
		Kind:      h.kind,
		ClientID:  req.ClientID,
		IssueDate: req.IssueDate,
		DueDate:   req.DueDate,
		TaxExempt: req.TaxExempt,
		Notes:     req.Notes,
		Lines:     lines,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(doc)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := billing.ListFilter{Kind: &h.kind}

	if s := r.URL.Query().Get("status"); s != "" {
		status := billing.Status(s)
		filter.Status = &status
	}

	if s := r.URL.Query().Get("client_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.ClientID = &id
		}
	}

	if s := r.URL.Query().Get("from_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.FromDate = &t
		}
	}

	if s := r.URL.Query().Get("to_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.ToDate = &t
		}
	}

	docs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(docs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	doc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(doc)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) attachLine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req lineSpecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.svc.AttachLineItem(r.Context(), id, req.toSpec())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(doc)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type replaceLinesRequest struct {
	Lines []lineSpecRequest `json:"lines"`
}

func (h *Handler) replaceLines(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req replaceLinesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	specs := make([]billing.LineItemSpec, 0, len(req.Lines))
	for _, l := range req.Lines {
		specs = append(specs, l.toSpec())
	}

	doc, err := h.svc.ReplaceAllLineItems(r.Context(), id, specs)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(doc)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateLineRequest struct {
	Quantity       *int             `json:"quantity,omitempty"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent,omitempty"`
	Description    *string          `json:"description,omitempty"`
}

func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		http.Error(w, "invalid line id", http.StatusBadRequest)
		return
	}

	var req updateLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.svc.UpdateLineItem(r.Context(), id, lineID, billing.LinePatch{
		Quantity:       req.Quantity,
		UnitPrice:      req.UnitPrice,
		TaxRatePercent: req.TaxRatePercent,
		Description:    req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(doc)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		http.Error(w, "invalid line id", http.StatusBadRequest)
		return
	}

	doc, err := h.svc.RemoveLineItem(r.Context(), id, lineID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(doc)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateStatusRequest struct {
	Status billing.Status `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.svc.Transition(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(doc)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps the billing sentinels onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrDocumentNotFound),
		errors.Is(err, billing.ErrLineItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, billing.ErrDocumentLocked),
		errors.Is(err, billing.ErrInvalidTransition),
		errors.Is(err, billing.ErrConcurrentModification),
		errors.Is(err, billing.ErrNumberConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, billing.ErrPartyNotFound),
		errors.Is(err, billing.ErrCatalogEntryNotFound),
		errors.Is(err, billing.ErrInvalidQuantity),
		errors.Is(err, billing.ErrInvalidPrice),
		errors.Is(err, billing.ErrInvalidTaxRate),
		errors.Is(err, billing.ErrInvalidDates):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
