package session

import (
	"example.com/cansubmit/internal/catalog"
	"example.com/cansubmit/internal/taxonomy"
)

// Sentinel is the display name the parameter list reserves for manual
// entry.
const Sentinel = "Enter manually"

// Session owns the state of one submission editing session: the vehicle
// taxonomy cascade, the preloaded parameter index, and the signals being
// edited. Sessions are independent of each other; nothing here is shared
// process state.
type Session struct {
	Taxonomy *taxonomy.Cascade
	Params   *catalog.Index

	defs []*SignalDefinition
}

// New returns a session backed by the given vehicle-catalog source with an
// empty parameter index.
func New(src taxonomy.Source) *Session {
	return &Session{
		Taxonomy: taxonomy.NewCascade(src),
		Params:   catalog.NewIndex(Sentinel),
	}
}

// LoadParameters preloads the parameter index.
func (s *Session) LoadParameters(entries []catalog.Entry) {
	s.Params.Load(entries)
}

// AddSignal appends a fresh signal definition and returns its handle.
func (s *Session) AddSignal() *SignalDefinition {
	d := NewSignalDefinition()
	s.defs = append(s.defs, d)
	return d
}

// RemoveSignal drops the definition identified by its handle. Sibling
// definitions keep their relative order and handles.
func (s *Session) RemoveSignal(d *SignalDefinition) bool {
	for i, got := range s.defs {
		if got == d {
			s.defs = append(s.defs[:i], s.defs[i+1:]...)
			return true
		}
	}
	return false
}

// Signals returns the definitions in display order.
func (s *Session) Signals() []*SignalDefinition {
	return s.defs
}

// Assemble builds the submission payload from the current session state.
func (s *Session) Assemble() (Payload, error) {
	return Assemble(s.Taxonomy, s.Params, s.defs)
}
