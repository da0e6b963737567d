// Package graph holds the read-only adjacency view of an expedition used to
// decide which pins a student's outcome unlocks.
package graph

import (
	"fmt"
	"slices"

	"github.com/alexanderramin/expeditions/internal/domain"
)

// Graph is an immutable adjacency list over one expedition's pins.
// It is safe for concurrent use.
type Graph struct {
	expeditionID string
	pins         []*domain.Pin
	conns        []*domain.Connection
	order        map[string]int
	outgoing     map[string][]*domain.Connection
	incoming     map[string]int
}

// New builds a Graph. pins must be in creation order. Every connection must
// join two pins of the same expedition.
func New(expeditionID string, pins []*domain.Pin, conns []*domain.Connection) (*Graph, error) {
	g := &Graph{
		expeditionID: expeditionID,
		pins:         pins,
		conns:        conns,
		order:        make(map[string]int, len(pins)),
		outgoing:     make(map[string][]*domain.Connection),
		incoming:     make(map[string]int),
	}
	for i, p := range pins {
		if p.ExpeditionID != expeditionID {
			return nil, fmt.Errorf("pin %s belongs to expedition %s, not %s", p.ID, p.ExpeditionID, expeditionID)
		}
		g.order[p.ID] = i
	}
	for _, c := range conns {
		if c.ExpeditionID != expeditionID {
			return nil, fmt.Errorf("connection %s belongs to expedition %s, not %s", c.ID, c.ExpeditionID, expeditionID)
		}
		if _, ok := g.order[c.FromPinID]; !ok {
			return nil, fmt.Errorf("connection %s: source pin %s not in expedition", c.ID, c.FromPinID)
		}
		if _, ok := g.order[c.ToPinID]; !ok {
			return nil, fmt.Errorf("connection %s: target pin %s not in expedition", c.ID, c.ToPinID)
		}
		g.outgoing[c.FromPinID] = append(g.outgoing[c.FromPinID], c)
		g.incoming[c.ToPinID]++
	}
	return g, nil
}

func (g *Graph) ExpeditionID() string { return g.expeditionID }

// Pins returns pins in creation order. Callers must not modify the slice.
func (g *Graph) Pins() []*domain.Pin { return g.pins }

// Connections returns connections in creation order.
func (g *Graph) Connections() []*domain.Connection { return g.conns }

func (g *Graph) Pin(id string) (*domain.Pin, bool) {
	i, ok := g.order[id]
	if !ok {
		return nil, false
	}
	return g.pins[i], true
}

func (g *Graph) Outgoing(pinID string) []*domain.Connection { return g.outgoing[pinID] }

// IsEntry reports whether the pin has no incoming connections.
func (g *Graph) IsEntry(pinID string) bool { return g.incoming[pinID] == 0 }

// EntryPins returns pins with zero incoming connections, in creation order.
func (g *Graph) EntryPins() []*domain.Pin {
	var out []*domain.Pin
	for _, p := range g.pins {
		if g.IsEntry(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// CheckStartable rejects graphs a student could never begin: a connection
// into an INTRO pin, or no entry pin at all (every pin sits on a cycle or
// behind another pin).
func (g *Graph) CheckStartable() error {
	var fields []domain.FieldError
	for _, c := range g.conns {
		if p, _ := g.Pin(c.ToPinID); p.Type == domain.PinIntro {
			fields = append(fields, domain.FieldError{
				Field: "connections",
				Error: fmt.Sprintf("INTRO pin %q cannot have an incoming connection", p.Name),
			})
		}
	}
	if len(g.pins) > 0 && len(g.EntryPins()) == 0 {
		fields = append(fields, domain.FieldError{
			Field: "pins",
			Error: "no entry pin: every pin has an incoming connection",
		})
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return nil
}

// InitialStatus is the status a pin gets when a student's progress is created.
func (g *Graph) InitialStatus(pinID string) domain.PinStatus {
	if g.IsEntry(pinID) {
		return domain.PinUnlocked
	}
	return domain.PinLocked
}

// Satisfied reports whether the connection is taken for the outcome.
// Unconditional edges are always taken; onSuccess=true is taken on PASS and
// COMPLETE; onSuccess=false only on FAIL.
func Satisfied(c *domain.Connection, o domain.Outcome) bool {
	if c.OnSuccess == nil {
		return true
	}
	if *c.OnSuccess {
		return o == domain.OutcomePass || o == domain.OutcomeComplete
	}
	return o == domain.OutcomeFail
}

// Resolve returns the pins to unlock after pinID resolved with outcome: the
// targets of satisfied outgoing connections whose status is LOCKED. A target
// with several incoming edges unlocks as soon as any one is satisfied.
// Results are unique and ordered by pin creation order. statuses maps pin id to
// the student's current status; missing entries count as LOCKED.
func (g *Graph) Resolve(pinID string, outcome domain.Outcome, statuses map[string]domain.PinStatus) []string {
	seen := make(map[string]bool)
	var targets []string
	for _, c := range g.outgoing[pinID] {
		if !Satisfied(c, outcome) || seen[c.ToPinID] {
			continue
		}
		seen[c.ToPinID] = true
		if st, ok := statuses[c.ToPinID]; ok && st != domain.PinLocked {
			continue
		}
		targets = append(targets, c.ToPinID)
	}
	g.sortByOrder(targets)
	return targets
}

func (g *Graph) sortByOrder(ids []string) {
	slices.SortFunc(ids, func(a, b string) int { return g.order[a] - g.order[b] })
}

// FinalScore is the percentage of reachable OBJECTIVE pins the student passed.
// A pin is reachable when its status is anything but LOCKED. With no reachable
// objectives the score is 100.
func (g *Graph) FinalScore(statuses map[string]domain.PinStatus) float64 {
	var reachable, passed int
	for _, p := range g.pins {
		if p.Type != domain.PinObjective {
			continue
		}
		st, ok := statuses[p.ID]
		if !ok || st == domain.PinLocked {
			continue
		}
		reachable++
		if st == domain.PinPassed {
			passed++
		}
	}
	if reachable == 0 {
		return 100
	}
	return 100 * float64(passed) / float64(reachable)
}
