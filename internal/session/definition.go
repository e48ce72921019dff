package session

import (
	"errors"
	"strings"

	"example.com/cansubmit/internal/bitfield"
	"example.com/cansubmit/internal/catalog"
)

// Endian is the byte order used to extract a signal from its frame.
type Endian string

const (
	EndianLittle Endian = "little"
	EndianBig    Endian = "big"
)

// Validation failures raised by SignalDefinition.Serialize. Each one names
// exactly one offending field.
var (
	ErrMissingCanID        = errors.New("can_id is required")
	ErrMissingEndianness   = errors.New("endianness is required")
	ErrUnresolvedParameter = errors.New("parameter needs a catalog match or a custom name")
)

// SignalDefinition is one editable signal within a submission session: the
// parameter it describes, how the frame carries it, and its occupied bits.
// Fields are mutated freely until Serialize is called.
type SignalDefinition struct {
	// ParamText is the name as typed against the catalog datalist.
	ParamText string
	// CustomName overrides the custom parameter name when the typed text
	// did not match the catalog.
	CustomName string

	CanID   string
	Formula string
	Endian  Endian
	Is29Bit bool

	BusTypeID   *int
	CanBusID    *int
	DimensionID *int

	Bits *bitfield.Field
}

// NewSignalDefinition returns a definition with an empty bit selection.
func NewSignalDefinition() *SignalDefinition {
	return &SignalDefinition{Bits: bitfield.New()}
}

// Item is the serialized form of one signal definition inside a submission
// payload.
type Item struct {
	ParameterID   *int    `json:"parameter_id"`
	ParameterName string  `json:"parameter_name,omitempty"`
	CanID         string  `json:"can_id"`
	Formula       *string `json:"formula"`
	Endian        Endian  `json:"endian"`
	Is29Bit       bool    `json:"is29bit"`
	BusTypeID     *int    `json:"bus_type_id"`
	CanBusID      *int    `json:"can_bus_id"`
	DimensionID   *int    `json:"dimension_id"`
	OffsetBits    *int    `json:"offset_bits"`
	LengthBits    *int    `json:"length_bits"`
	SelectedBits  []int   `json:"selected_bits"`
	SelectedBytes []int   `json:"selected_bytes"`
	Notes         *string `json:"notes"`
}

// Serialize validates the definition against the parameter index and
// produces its submission item. The parameter must resolve to a catalog
// identifier or a non-empty custom name; offset and length are the bit
// selection's bounding range and stay null while nothing is selected.
// Serialize never mutates the definition or the index.
func (d *SignalDefinition) Serialize(idx *catalog.Index) (Item, error) {
	canID := strings.TrimSpace(d.CanID)
	if canID == "" {
		return Item{}, ErrMissingCanID
	}
	if d.Endian != EndianLittle && d.Endian != EndianBig {
		return Item{}, ErrMissingEndianness
	}

	item := Item{
		CanID:   canID,
		Endian:  d.Endian,
		Is29Bit: d.Is29Bit,

		BusTypeID:   d.BusTypeID,
		CanBusID:    d.CanBusID,
		DimensionID: d.DimensionID,
	}

	res := idx.Resolve(d.ParamText)
	if res.Known {
		id := res.ID
		item.ParameterID = &id
	} else {
		name := strings.TrimSpace(d.CustomName)
		if name == "" {
			name = res.Name
		}
		if name == "" {
			return Item{}, ErrUnresolvedParameter
		}
		item.ParameterName = name
	}

	if formula := strings.TrimSpace(d.Formula); formula != "" {
		item.Formula = &formula
	}

	if offset, length, ok := d.Bits.BoundingRange(); ok {
		item.OffsetBits = &offset
		item.LengthBits = &length
	}
	item.SelectedBits = d.Bits.SelectedBits()
	item.SelectedBytes = d.Bits.SelectedBytes()
	return item, nil
}
