package taxonomy

import (
	"context"
	"strings"

	"example.com/cansubmit/internal/common"
)

// Generation is one concrete vehicle generation offered by the catalog.
type Generation struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// Source provides the vehicle-catalog lookups the cascade depends on.
type Source interface {
	Makes(ctx context.Context) ([]string, error)
	Models(ctx context.Context, makeName string) ([]string, error)
	Generations(ctx context.Context, makeName, modelName string) ([]Generation, error)
}

// State describes one cascade level's value.
type State int

const (
	// Unset means no selection has been made at this level yet.
	Unset State = iota
	// Concrete means a catalog option was picked.
	Concrete
	// Custom means the operator escaped to free text at this level.
	Custom
)

// Choice is the operator's pick at a cascade level.
type Choice struct {
	state State
	name  string
	id    int
}

// PickOption selects a concrete option by name. A blank name is treated as
// clearing the level.
func PickOption(name string) Choice {
	name = strings.TrimSpace(name)
	if name == "" {
		return Choice{}
	}
	return Choice{state: Concrete, name: name}
}

// PickGeneration selects a concrete generation by identifier.
func PickGeneration(id int, label string) Choice {
	return Choice{state: Concrete, name: label, id: id}
}

// PickCustom escapes to manual entry at this level.
func PickCustom() Choice {
	return Choice{state: Custom}
}

type level struct {
	state State
	name  string
	id    int
	text  string
}

// Cascade is the make -> model -> generation dependent-selection chain of
// one editing session. Changing an upstream level always resets every level
// below it. Fetch failures degrade to empty option lists so the custom
// escape stays reachable; they never block the operator.
//
// The cascade itself is single-threaded, but a fetch may finish after the
// operator has moved on. Every level keeps an epoch that is bumped by
// upstream changes, and results are dropped when their epoch is stale.
type Cascade struct {
	src Source

	mk  level
	mdl level
	gen level

	modelOptions      []string
	generationOptions []Generation

	modelEpoch      uint64
	generationEpoch uint64
}

// NewCascade returns a cascade with every level unset.
func NewCascade(src Source) *Cascade {
	return &Cascade{src: src}
}

// SelectMake applies the operator's make choice. A custom or cleared make
// forces model and generation into their custom escapes; a concrete make
// fetches its models and leaves the downstream levels awaiting a pick.
func (c *Cascade) SelectMake(ctx context.Context, choice Choice) {
	c.modelEpoch++
	c.generationEpoch++
	c.modelOptions = nil
	c.generationOptions = nil
	c.mdl = level{}
	c.gen = level{}

	switch choice.state {
	case Concrete:
		c.mk = level{state: Concrete, name: choice.name}
	case Custom:
		c.mk = level{state: Custom, text: c.mk.text}
		c.mdl.state = Custom
		c.gen.state = Custom
		return
	default:
		c.mk = level{}
		c.mdl.state = Custom
		c.gen.state = Custom
		return
	}

	epoch := c.modelEpoch
	models, err := c.src.Models(ctx, choice.name)
	if err != nil {
		common.Logf("models fetch for %q degraded: %v", choice.name, err)
		models = nil
	}
	c.applyModels(epoch, models)
}

// SelectModel applies the operator's model choice. While the make is custom
// or unset the model stays forced custom regardless of the argument.
func (c *Cascade) SelectModel(ctx context.Context, choice Choice) {
	c.generationEpoch++
	c.generationOptions = nil
	c.gen = level{}

	if c.mk.state != Concrete {
		c.mdl = level{state: Custom, text: c.mdl.text}
		c.gen.state = Custom
		return
	}

	switch choice.state {
	case Concrete:
		c.mdl = level{state: Concrete, name: choice.name}
	case Custom:
		c.mdl = level{state: Custom, text: c.mdl.text}
		c.gen.state = Custom
		return
	default:
		c.mdl = level{}
		return
	}

	epoch := c.generationEpoch
	gens, err := c.src.Generations(ctx, c.mk.name, choice.name)
	if err != nil {
		common.Logf("generations fetch for %q/%q degraded: %v", c.mk.name, choice.name, err)
		gens = nil
	}
	c.applyGenerations(epoch, gens)
}

// SelectGeneration applies the operator's generation choice. While make or
// model is custom or unset the generation stays forced custom. A concrete
// pick must reference one of the fetched options; an unknown pick falls
// back to the custom escape, which is always available even when the
// catalog returned zero generations. A blank choice clears the level.
func (c *Cascade) SelectGeneration(choice Choice) {
	if c.mk.state != Concrete || c.mdl.state != Concrete {
		c.gen = level{state: Custom, text: c.gen.text}
		return
	}
	switch choice.state {
	case Concrete:
		for _, g := range c.generationOptions {
			if g.ID == choice.id {
				c.gen = level{state: Concrete, name: g.Label, id: g.ID}
				return
			}
		}
		c.gen = level{state: Custom, text: c.gen.text}
	case Custom:
		c.gen = level{state: Custom, text: c.gen.text}
	default:
		c.gen = level{}
	}
}

// applyModels installs a completed model fetch unless it is stale.
func (c *Cascade) applyModels(epoch uint64, models []string) bool {
	if epoch != c.modelEpoch {
		return false
	}
	c.modelOptions = models
	return true
}

// applyGenerations installs a completed generation fetch unless it is stale.
func (c *Cascade) applyGenerations(epoch uint64, gens []Generation) bool {
	if epoch != c.generationEpoch {
		return false
	}
	c.generationOptions = gens
	return true
}

// SetMakeText records the free-text make description.
func (c *Cascade) SetMakeText(text string) {
	c.mk.text = strings.TrimSpace(text)
}

// SetModelText records the free-text model description.
func (c *Cascade) SetModelText(text string) {
	c.mdl.text = strings.TrimSpace(text)
}

// SetGenerationText records the free-text generation description.
func (c *Cascade) SetGenerationText(text string) {
	c.gen.text = strings.TrimSpace(text)
}

// ModelOptions returns the fetched models for the current make.
func (c *Cascade) ModelOptions() []string {
	return c.modelOptions
}

// GenerationOptions returns the fetched generations for the current make
// and model.
func (c *Cascade) GenerationOptions() []Generation {
	return c.generationOptions
}

// MakeState reports the make level's state.
func (c *Cascade) MakeState() State { return c.mk.state }

// ModelState reports the model level's state.
func (c *Cascade) ModelState() State { return c.mdl.state }

// GenerationState reports the generation level's state.
func (c *Cascade) GenerationState() State { return c.gen.state }

// VehicleID returns the concrete generation identifier. ok is false while
// the generation is custom or unset.
func (c *Cascade) VehicleID() (int, bool) {
	if c.gen.state != Concrete {
		return 0, false
	}
	return c.gen.id, true
}

// Resolution is a snapshot of the cascade for payload assembly. Concrete
// names and the free-text overrides travel separately; a level that is
// custom or unset leaves its concrete field blank.
type Resolution struct {
	VehicleID        *int
	Make             string
	MakeCustom       string
	Model            string
	ModelCustom      string
	GenerationLabel  string
	GenerationCustom string
}

// Resolve captures the current taxonomy selection.
func (c *Cascade) Resolve() Resolution {
	var res Resolution
	if id, ok := c.VehicleID(); ok {
		res.VehicleID = &id
	}
	if c.mk.state == Concrete {
		res.Make = c.mk.name
	}
	res.MakeCustom = c.mk.text
	if c.mdl.state == Concrete {
		res.Model = c.mdl.name
	}
	res.ModelCustom = c.mdl.text
	if c.gen.state == Concrete {
		res.GenerationLabel = c.gen.name
	}
	res.GenerationCustom = c.gen.text
	return res
}
