package session

import (
	"fmt"

	"example.com/cansubmit/internal/catalog"
	"example.com/cansubmit/internal/taxonomy"
)

// Payload is one outbound submission: the resolved vehicle taxonomy plus
// the serialized signal definitions. It is built fresh on every assembly
// attempt and never mutated afterwards.
type Payload struct {
	VehicleID        *int    `json:"vehicle_id"`
	Make             *string `json:"make"`
	MakeCustom       *string `json:"make_custom"`
	Model            *string `json:"model"`
	ModelCustom      *string `json:"model_custom"`
	GenerationLabel  *string `json:"generation_label"`
	GenerationCustom *string `json:"generation_custom"`
	Items            []Item  `json:"items"`
}

// Assemble resolves the taxonomy and serializes every definition in display
// order. The first validation failure aborts the whole assembly; no partial
// payload is ever returned.
func Assemble(c *taxonomy.Cascade, idx *catalog.Index, defs []*SignalDefinition) (Payload, error) {
	res := c.Resolve()
	p := Payload{
		VehicleID:        res.VehicleID,
		Make:             orNull(res.Make),
		MakeCustom:       orNull(res.MakeCustom),
		Model:            orNull(res.Model),
		ModelCustom:      orNull(res.ModelCustom),
		GenerationLabel:  orNull(res.GenerationLabel),
		GenerationCustom: orNull(res.GenerationCustom),
		Items:            make([]Item, 0, len(defs)),
	}
	for i, d := range defs {
		item, err := d.Serialize(idx)
		if err != nil {
			return Payload{}, fmt.Errorf("signal %d: %w", i+1, err)
		}
		p.Items = append(p.Items, item)
	}
	return p, nil
}

func orNull(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
