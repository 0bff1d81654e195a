package ecs

// WorldStats is a point-in-time summary of a World.
type WorldStats struct {
	EntityCount    int
	EntityCapacity int
	MaxEntities    int
	Components     []ComponentStats
	Systems        []MembershipStats
}

// ComponentStats describes one registered component type.
type ComponentStats struct {
	Type  string
	Bit   Signature
	Count int
}

// MembershipStats describes one registered system.
type MembershipStats struct {
	ID       SystemID
	Required []Signature
	Members  int
}

// CollectStats gathers counts for every component store and system.
func (w *World) CollectStats() WorldStats {
	stats := WorldStats{
		EntityCount:    w.entities.Len(),
		EntityCapacity: w.entities.Capacity(),
		MaxEntities:    w.entities.MaxEntities(),
		Components:     make([]ComponentStats, 0, len(w.components.byBit)),
		Systems:        make([]MembershipStats, 0, len(w.systems.systems)),
	}

	for _, info := range w.components.byBit {
		stats.Components = append(stats.Components, ComponentStats{
			Type:  info.typ.String(),
			Bit:   info.bit,
			Count: info.store.Len(),
		})
	}

	for _, m := range w.systems.systems {
		stats.Systems = append(stats.Systems, MembershipStats{
			ID:       m.id,
			Required: append([]Signature(nil), m.required...),
			Members:  len(m.members),
		})
	}
	return stats
}
