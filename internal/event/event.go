package event

// Kind identifies a Kuru order book event type. The string values double as
// the JSON keys on the wire and match the frontend's expectations.
type Kind string

const (
	KindTrade                      Kind = "trade"
	KindOrderCreated               Kind = "orderCreated"
	KindOrdersCanceled             Kind = "ordersCanceled"
	KindInitialized                Kind = "initialized"
	KindOwnershipHandoverCanceled  Kind = "ownershipHandoverCanceled"
	KindOwnershipHandoverRequested Kind = "ownershipHandoverRequested"
	KindOwnershipTransferred       Kind = "ownershipTransferred"
	KindUpgraded                   Kind = "upgraded"
)

// Kinds returns all known kinds in canonical order.
func Kinds() []Kind {
	return []Kind{
		KindTrade,
		KindOrderCreated,
		KindOrdersCanceled,
		KindInitialized,
		KindOwnershipHandoverCanceled,
		KindOwnershipHandoverRequested,
		KindOwnershipTransferred,
		KindUpgraded,
	}
}

// EventName maps a kind to its Solidity event name in the order book ABI.
func (k Kind) EventName() string {
	switch k {
	case KindTrade:
		return "Trade"
	case KindOrderCreated:
		return "OrderCreated"
	case KindOrdersCanceled:
		return "OrdersCanceled"
	case KindInitialized:
		return "Initialized"
	case KindOwnershipHandoverCanceled:
		return "OwnershipHandoverCanceled"
	case KindOwnershipHandoverRequested:
		return "OwnershipHandoverRequested"
	case KindOwnershipTransferred:
		return "OwnershipTransferred"
	case KindUpgraded:
		return "Upgraded"
	default:
		return ""
	}
}

// Envelope carries the fields shared by every decoded event.
type Envelope struct {
	// ID is the log identity, also the storage primary key.
	ID string `json:"id"`

	// BlockNumber is the emitting block height.
	BlockNumber uint64 `json:"blockNumber"`

	// TransactionHash is the emitting transaction.
	TransactionHash string `json:"transactionHash"`

	// OrderBookAddress is the contract that emitted the event.
	OrderBookAddress string `json:"orderBookAddress"`
}

// Decoded is implemented by every event variant.
type Decoded interface {
	Kind() Kind
	Common() Envelope
}

// Trade is a fill against a resting order. All sizes and prices are decimal
// strings; the on-chain values are up to 256 bits wide.
type Trade struct {
	Envelope
	OrderID      string `json:"orderId"`
	MakerAddress string `json:"makerAddress"`
	IsBuy        bool   `json:"isBuy"`
	Price        string `json:"price"`
	UpdatedSize  string `json:"updatedSize"`
	TakerAddress string `json:"takerAddress"`
	TxOrigin     string `json:"txOrigin"`
	FilledSize   string `json:"filledSize"`
}

func (*Trade) Kind() Kind         { return KindTrade }
func (e *Trade) Common() Envelope { return e.Envelope }

// OrderCreated is a new resting order on the book.
type OrderCreated struct {
	Envelope
	OrderID string `json:"orderId"`
	Owner   string `json:"owner"`
	Size    string `json:"size"`
	Price   string `json:"price"`
	IsBuy   bool   `json:"isBuy"`
}

func (*OrderCreated) Kind() Kind         { return KindOrderCreated }
func (e *OrderCreated) Common() Envelope { return e.Envelope }

// OrdersCanceled is a batch cancellation by one owner.
type OrdersCanceled struct {
	Envelope
	OrderIDs []string `json:"orderIds"`
	Owner    string   `json:"owner"`
}

func (*OrdersCanceled) Kind() Kind         { return KindOrdersCanceled }
func (e *OrdersCanceled) Common() Envelope { return e.Envelope }

// Initialized marks a proxy initialization of the order book contract.
type Initialized struct {
	Envelope
	Version string `json:"version"`
}

func (*Initialized) Kind() Kind         { return KindInitialized }
func (e *Initialized) Common() Envelope { return e.Envelope }

// OwnershipHandoverCanceled cancels a pending two-step ownership handover.
type OwnershipHandoverCanceled struct {
	Envelope
	PendingOwner string `json:"pendingOwner"`
}

func (*OwnershipHandoverCanceled) Kind() Kind         { return KindOwnershipHandoverCanceled }
func (e *OwnershipHandoverCanceled) Common() Envelope { return e.Envelope }

// OwnershipHandoverRequested opens a two-step ownership handover.
type OwnershipHandoverRequested struct {
	Envelope
	PendingOwner string `json:"pendingOwner"`
}

func (*OwnershipHandoverRequested) Kind() Kind         { return KindOwnershipHandoverRequested }
func (e *OwnershipHandoverRequested) Common() Envelope { return e.Envelope }

// OwnershipTransferred records a completed ownership transfer.
type OwnershipTransferred struct {
	Envelope
	OldOwner string `json:"oldOwner"`
	NewOwner string `json:"newOwner"`
}

func (*OwnershipTransferred) Kind() Kind         { return KindOwnershipTransferred }
func (e *OwnershipTransferred) Common() Envelope { return e.Envelope }

// Upgraded records an implementation upgrade of the proxy.
type Upgraded struct {
	Envelope
	Implementation string `json:"implementation"`
}

func (*Upgraded) Kind() Kind         { return KindUpgraded }
func (e *Upgraded) Common() Envelope { return e.Envelope }
