package link

import (
	"civicline/internal/schema"
	"civicline/internal/tabular"
)

// CanonicalAction is one action-type with every source citation that
// referenced it. Actions sharing a canonical type are collapsed into a
// single entry rather than duplicated.
type CanonicalAction struct {
	// Type is the action-type record, zero when the action carried no
	// resolvable type reference.
	Type tabular.Record
	// Label is the canonical label (action-type label when available,
	// otherwise the first action's own label).
	Label string
	// Description is the action-type description, when available.
	Description string
	// Citations are the source action records, in source order.
	Citations []tabular.Record
}

// CanonicalizeActions groups linked actions by their canonical
// action-type. Actions without a type reference (or with a dangling
// one) each stand alone under their own label.
func CanonicalizeActions(actions []tabular.Record, types map[string]tabular.Record) []CanonicalAction {
	var out []CanonicalAction
	byType := make(map[string]int)

	for _, action := range actions {
		typeID := schema.ActionTypeID(action)
		typeRec, known := types[typeID]
		if typeID == "" || !known {
			out = append(out, CanonicalAction{
				Label:     schema.ActionLabel(action),
				Citations: []tabular.Record{action},
			})
			continue
		}

		if i, ok := byType[typeID]; ok {
			out[i].Citations = append(out[i].Citations, action)
			continue
		}

		label := typeRec.Preferred(schema.ActionTypeLabelKeys...)
		if label == "" {
			label = schema.ActionLabel(action)
		}
		byType[typeID] = len(out)
		out = append(out, CanonicalAction{
			Type:        typeRec,
			Label:       label,
			Description: typeRec.Preferred(schema.ActionTypeDescKeys...),
			Citations:   []tabular.Record{action},
		})
	}
	return out
}
