package elaborate

import "planar/internal/core"

// scope is one lexical level of variable bindings: the Go analogue of
// the reference's GenScope.var_map, minus its parallel type_map (this
// elaborator re-resolves named types on every DataType it visits
// instead of caching them per scope).
type scope struct {
	vars map[core.Name]core.Index[Variable]
}

func newScope() *scope {
	return &scope{vars: make(map[core.Name]core.Index[Variable])}
}
