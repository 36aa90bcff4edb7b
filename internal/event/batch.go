package event

// Batch groups decoded events by kind for one ingestion call. It is built
// once by the pipeline and then read independently by each sink. Every kind
// is always present when marshaled, with an empty array when no events of
// that kind were decoded, so stream consumers see a fixed shape.
type Batch struct {
	Trade                      []*Trade                      `json:"trade"`
	OrderCreated               []*OrderCreated               `json:"orderCreated"`
	OrdersCanceled             []*OrdersCanceled             `json:"ordersCanceled"`
	Initialized                []*Initialized                `json:"initialized"`
	OwnershipHandoverCanceled  []*OwnershipHandoverCanceled  `json:"ownershipHandoverCanceled"`
	OwnershipHandoverRequested []*OwnershipHandoverRequested `json:"ownershipHandoverRequested"`
	OwnershipTransferred       []*OwnershipTransferred       `json:"ownershipTransferred"`
	Upgraded                   []*Upgraded                   `json:"upgraded"`
}

// NewBatch returns an empty batch with every kind initialized, so JSON
// marshaling produces [] rather than null for kinds without events.
func NewBatch() *Batch {
	return &Batch{
		Trade:                      []*Trade{},
		OrderCreated:               []*OrderCreated{},
		OrdersCanceled:             []*OrdersCanceled{},
		Initialized:                []*Initialized{},
		OwnershipHandoverCanceled:  []*OwnershipHandoverCanceled{},
		OwnershipHandoverRequested: []*OwnershipHandoverRequested{},
		OwnershipTransferred:       []*OwnershipTransferred{},
		Upgraded:                   []*Upgraded{},
	}
}

// Append adds a decoded event to its kind's slice, preserving arrival order.
func (b *Batch) Append(d Decoded) {
	switch e := d.(type) {
	case *Trade:
		b.Trade = append(b.Trade, e)
	case *OrderCreated:
		b.OrderCreated = append(b.OrderCreated, e)
	case *OrdersCanceled:
		b.OrdersCanceled = append(b.OrdersCanceled, e)
	case *Initialized:
		b.Initialized = append(b.Initialized, e)
	case *OwnershipHandoverCanceled:
		b.OwnershipHandoverCanceled = append(b.OwnershipHandoverCanceled, e)
	case *OwnershipHandoverRequested:
		b.OwnershipHandoverRequested = append(b.OwnershipHandoverRequested, e)
	case *OwnershipTransferred:
		b.OwnershipTransferred = append(b.OwnershipTransferred, e)
	case *Upgraded:
		b.Upgraded = append(b.Upgraded, e)
	}
}

// Events returns every decoded event in the batch, grouped by kind in
// canonical order. Callers that don't care about the concrete variant work
// through the Decoded interface instead of mirroring the type switch.
func (b *Batch) Events() []Decoded {
	out := make([]Decoded, 0, b.Total())
	for _, e := range b.Trade {
		out = append(out, e)
	}
	for _, e := range b.OrderCreated {
		out = append(out, e)
	}
	for _, e := range b.OrdersCanceled {
		out = append(out, e)
	}
	for _, e := range b.Initialized {
		out = append(out, e)
	}
	for _, e := range b.OwnershipHandoverCanceled {
		out = append(out, e)
	}
	for _, e := range b.OwnershipHandoverRequested {
		out = append(out, e)
	}
	for _, e := range b.OwnershipTransferred {
		out = append(out, e)
	}
	for _, e := range b.Upgraded {
		out = append(out, e)
	}
	return out
}

// Total is the event count across all kinds.
func (b *Batch) Total() int {
	return len(b.Trade) +
		len(b.OrderCreated) +
		len(b.OrdersCanceled) +
		len(b.Initialized) +
		len(b.OwnershipHandoverCanceled) +
		len(b.OwnershipHandoverRequested) +
		len(b.OwnershipTransferred) +
		len(b.Upgraded)
}

// Counts returns the per-kind event counts for logging.
func (b *Batch) Counts() map[Kind]int {
	return map[Kind]int{
		KindTrade:                      len(b.Trade),
		KindOrderCreated:               len(b.OrderCreated),
		KindOrdersCanceled:             len(b.OrdersCanceled),
		KindInitialized:                len(b.Initialized),
		KindOwnershipHandoverCanceled:  len(b.OwnershipHandoverCanceled),
		KindOwnershipHandoverRequested: len(b.OwnershipHandoverRequested),
		KindOwnershipTransferred:       len(b.OwnershipTransferred),
		KindUpgraded:                   len(b.Upgraded),
	}
}
