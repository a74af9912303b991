package configspace

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct renders the space as a protobuf Struct so it can be shipped to an
// external optimizer over any protobuf transport.
func (cs *ConfigurationSpace) ToStruct() (*structpb.Struct, error) {
	hps := make([]any, 0, len(cs.order))
	for _, name := range cs.order {
		hps = append(hps, cs.params[name].describe())
	}

	conds := make([]any, 0, len(cs.conditions))
	for _, c := range cs.Conditions() {
		conds = append(conds, map[string]any{
			"child":  c.Child,
			"parent": c.Parent,
			"value":  c.Value,
		})
	}

	st, err := structpb.NewStruct(map[string]any{
		"hyperparameters": hps,
		"conditions":      conds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search space: %w", err)
	}
	return st, nil
}

// MarshalJSON encodes the space through protojson
func (cs *ConfigurationSpace) MarshalJSON() ([]byte, error) {
	st, err := cs.ToStruct()
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(st)
}

// MarshalIndentJSON is MarshalJSON with multi-line output
func (cs *ConfigurationSpace) MarshalIndentJSON() ([]byte, error) {
	st, err := cs.ToStruct()
	if err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(st)
}
