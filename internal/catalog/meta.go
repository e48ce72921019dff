package catalog

// BusType is an auxiliary metadata row describing a CAN bus role.
type BusType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CanBus is an auxiliary metadata row describing a bus speed.
type CanBus struct {
	ID       int    `json:"id"`
	Baudrate int    `json:"baudrate"`
	Name     string `json:"name,omitempty"`
}

// Dimension is an auxiliary metadata row describing a physical unit.
type Dimension struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Usage reports how often a parameter name appears in stored submissions
// for one vehicle generation.
type Usage struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}
