package state

import (
	"fmt"

	"nftchain/core/types"
	"nftchain/native/common"
)

// Bootstrap replays historical transactions through every handler in
// dependency order, reconstructing the in-memory indexes at node startup
// without re-running full validation. Handlers whose Dependencies() name
// another handler bootstrap strictly after it.
func Bootstrap(handlers []common.Handler) error {
	ordered, err := orderByDependencies(handlers)
	if err != nil {
		return err
	}
	for _, h := range ordered {
		if err := h.Bootstrap(); err != nil {
			return fmt.Errorf("bootstrap %s: %w", h.Kind(), err)
		}
	}
	return nil
}

func orderByDependencies(handlers []common.Handler) ([]common.Handler, error) {
	byKind := make(map[types.TxKind]common.Handler, len(handlers))
	for _, h := range handlers {
		if _, ok := byKind[h.Kind()]; ok {
			return nil, fmt.Errorf("bootstrap: duplicate handler for %s", h.Kind())
		}
		byKind[h.Kind()] = h
	}

	ordered := make([]common.Handler, 0, len(handlers))
	state := make(map[types.TxKind]int, len(handlers)) // 0 unseen, 1 visiting, 2 done

	var visit func(h common.Handler) error
	visit = func(h common.Handler) error {
		switch state[h.Kind()] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("bootstrap: dependency cycle through %s", h.Kind())
		}
		state[h.Kind()] = 1
		for _, dep := range h.Dependencies() {
			depHandler, ok := byKind[dep]
			if !ok {
				return fmt.Errorf("bootstrap: %s depends on missing handler %s", h.Kind(), dep)
			}
			if err := visit(depHandler); err != nil {
				return err
			}
		}
		state[h.Kind()] = 2
		ordered = append(ordered, h)
		return nil
	}

	for _, h := range handlers {
		if err := visit(h); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
