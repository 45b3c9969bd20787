package main

import (
	"flag"
	"fmt"
	"os"

	"snowcity/internal/fit"
	"snowcity/internal/gltfload"
	"snowcity/internal/mathutil"
)

func main() {
	footprint := flag.Float64("footprint", 10.8, "Target footprint in world units")
	margin := flag.Float64("margin", fit.DefaultMargin, "Share of the footprint the model may use")
	flag.Parse()

	spec := fit.Spec{Footprint: *footprint, Margin: *margin}
	status := 0
	for _, arg := range flag.Args() {
		g, err := gltfload.Load(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Load error %s: %v\n", arg, err)
			status = 1
			continue
		}
		nodes, meshNodes, tris := g.Stats()
		fmt.Printf("\n=== %s (nodes=%d meshes=%d tris=%d) ===\n", arg, nodes, meshNodes, tris)

		b := g.Bounds(mathutil.Mat4Identity())
		if b.IsEmpty() {
			fmt.Println("  bounds: empty")
		} else {
			s := b.Size()
			fmt.Printf("  bounds: min=[%.3f %.3f %.3f] max=[%.3f %.3f %.3f] size=[%.3f %.3f %.3f]\n",
				b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2], s[0], s[1], s[2])
		}

		for _, m := range g.Materials() {
			fmt.Printf("  material %-24s %s side=%s\n", m.Name, m.Color.Hex(), m.Side)
		}

		tr, err := fit.Fit(g, spec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fit error %s: %v\n", arg, err)
			status = 1
			continue
		}
		fmt.Printf("  fit: scale=%.4f offset=[%.3f %.3f %.3f] degenerate=%v\n",
			tr.Scale, tr.Offset[0], tr.Offset[1], tr.Offset[2], tr.Degenerate)
	}
	os.Exit(status)
}
