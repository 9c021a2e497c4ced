package billing

// transitions is the allowed status graph. Paid and Cancelled are terminal;
// a draft must pass through pending before it can be paid or cancelled.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusPending},
	StatusPending:   {StatusPaid, StatusCancelled, StatusOverdue},
	StatusOverdue:   {StatusPaid, StatusCancelled},
	StatusPaid:      {},
	StatusCancelled: {},
}

// CanTransition reports whether to is directly reachable from from.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}

	return false
}

// CanEditLines reports whether structural line mutations are permitted in
// the document's current status.
func (d *Document) CanEditLines() bool {
	return d.Status == StatusDraft || d.Status == StatusPending
}
