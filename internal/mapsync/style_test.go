package mapsync

import (
	"fmt"

	"github.com/paulmach/orb"
)

// apply replays ops onto the style the way a browser mirror does.
func (s *Style) apply(ops []Op) error {
	for _, op := range ops {
		var err error
		switch op.Op {
		case OpAddSource:
			err = s.AddSource(op.ID, op.Data)
		case OpRemoveSource:
			err = s.RemoveSource(op.ID)
		case OpAddLayer:
			if op.Layer == nil {
				err = fmt.Errorf("op %s %q: missing layer", op.Op, op.ID)
				break
			}
			err = s.AddLayer(*op.Layer)
		case OpRemoveLayer:
			err = s.RemoveLayer(op.ID)
		case OpFitBounds:
			if op.Bounds == nil {
				err = fmt.Errorf("op %s: missing bounds", op.Op)
				break
			}
			b := op.Bounds
			err = s.FitBounds(orb.Bound{Min: orb.Point{b[0], b[1]}, Max: orb.Point{b[2], b[3]}}, op.Padding)
		default:
			err = fmt.Errorf("unknown op %q", op.Op)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
