package table

// Builder accumulates the raw fields of one operation while its rows are scanned
type Builder struct {
	Key string

	BLNumber string
	Line     string

	Locations    []string
	Parties      []string // shipper / consignee / notify / containers blob pieces
	Containers   []string
	AmountTypes  []string
	Descriptions []string

	origin  string
	pages   []string
	pageSet map[string]struct{}
}

// NewBuilder creates an empty builder for key, first seen on page origin
func NewBuilder(key, origin string) *Builder {
	return &Builder{
		Key:     key,
		origin:  origin,
		pageSet: make(map[string]struct{}),
	}
}

// Origin returns the page the builder was created on
func (b *Builder) Origin() string {
	return b.origin
}

// AddPage records that the operation touched page. It returns false when the page
// was already recorded.
func (b *Builder) AddPage(page string) bool {
	if _, ok := b.pageSet[page]; ok {
		return false
	}
	b.pageSet[page] = struct{}{}
	b.pages = append(b.pages, page)
	return true
}

// Pages returns the pages in discovery order
func (b *Builder) Pages() []string {
	out := make([]string, len(b.pages))
	copy(out, b.pages)
	return out
}

// Set stores value into slot following the slot's accumulation mode
func (b *Builder) Set(slot Slot, value string) {
	switch slot {
	case SlotBLNumber:
		b.BLNumber = value
	case SlotLine:
		b.Line = value
	case SlotLocation:
		b.Locations = append(b.Locations, value)
	case SlotShipperConsignee:
		b.Parties = append(b.Parties, value)
	case SlotContainerInfo:
		b.Containers = append(b.Containers, value)
	case SlotCargoAmountType:
		b.AmountTypes = append(b.AmountTypes, value)
	case SlotCargoDescription:
		b.Descriptions = append(b.Descriptions, value)
	}
}

// RecordMap holds the builders of one document, keyed by record key, in the order
// the keys were first seen.
type RecordMap struct {
	byKey map[string]*Builder
	order []string
}

// NewRecordMap returns an empty map
func NewRecordMap() *RecordMap {
	return &RecordMap{byKey: make(map[string]*Builder)}
}

// Get returns the builder for key or nil
func (m *RecordMap) Get(key string) *Builder {
	return m.byKey[key]
}

// Len returns the number of records
func (m *RecordMap) Len() int {
	return len(m.order)
}

// Put stores b under its key. Replacing an existing key keeps that key's position.
func (m *RecordMap) Put(b *Builder) {
	if _, ok := m.byKey[b.Key]; !ok {
		m.order = append(m.order, b.Key)
	}
	m.byKey[b.Key] = b
}

// Ensure returns the builder for key, creating it on page when absent
func (m *RecordMap) Ensure(key, page string) *Builder {
	if b, ok := m.byKey[key]; ok {
		return b
	}
	b := NewBuilder(key, page)
	m.Put(b)
	return b
}

// Drain moves every builder out in first-seen order and leaves the map empty
func (m *RecordMap) Drain() []*Builder {
	out := make([]*Builder, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.byKey[k])
	}
	m.byKey = make(map[string]*Builder)
	m.order = nil
	return out
}
