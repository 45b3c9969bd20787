package fit

import (
	"strings"

	"snowcity/internal/model"
	"snowcity/internal/scenery"
)

// Tint recolors materials whose "<material> <node>" name contains Category,
// case-insensitively. An empty Category disables tinting.
type Tint struct {
	Category string
	Color    scenery.RGBA
}

// Matches reports whether a material/node pair falls in the category.
func (t Tint) Matches(materialName, nodeName string) bool {
	if t.Category == "" {
		return false
	}
	n := strings.ToLower(materialName + " " + nodeName)
	return strings.Contains(n, strings.ToLower(t.Category))
}

// rewriter applies copy-on-write material changes to one cloned graph.
// Each shared source material is cloned at most once per variant, and only
// when it actually needs a change.
type rewriter struct {
	tint   Tint
	tinted map[*model.Material]*model.Material
	sided  map[*model.Material]*model.Material
	owned  []*model.Material
}

func newRewriter(t Tint) *rewriter {
	return &rewriter{
		tint:   t,
		tinted: make(map[*model.Material]*model.Material),
		sided:  make(map[*model.Material]*model.Material),
	}
}

func (r *rewriter) node(n *model.Node) {
	if n.Mesh == nil {
		return
	}
	n.CastShadow = true
	n.ReceiveShadow = true
	for i, m := range n.Materials {
		if m == nil {
			continue
		}
		n.Materials[i] = r.material(m, n.Name)
	}
}

func (r *rewriter) material(m *model.Material, nodeName string) *model.Material {
	if r.tint.Matches(m.Name, nodeName) {
		if c, ok := r.tinted[m]; ok {
			return c
		}
		c := m.Clone()
		c.Color = r.tint.Color
		c.Side = model.SideFront
		r.tinted[m] = c
		r.owned = append(r.owned, c)
		return c
	}
	if m.Side != model.SideFront {
		if c, ok := r.sided[m]; ok {
			return c
		}
		c := m.Clone()
		c.Side = model.SideFront
		r.sided[m] = c
		r.owned = append(r.owned, c)
		return c
	}
	return m
}
