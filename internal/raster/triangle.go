package raster

import (
	"image"
	"math"
)

// Surface is the per-triangle shading input.
type Surface struct {
	Tex        *image.NRGBA // optional; sampled with UV when non-nil
	UV         [3][2]float64
	R, G, B, A uint8 // base color, multiplied with the texel when textured
	Shade      float64
}

// RasterizeTriangle rasterizes a single triangle with z-buffer, sRGB color
// space, flat lighting and ACES tone mapping.
//
// Zero allocation in the inner loop.
func RasterizeTriangle(fb *FrameBuffer, px, py, pz []float64, vi [3]int, s *Surface, lc *LightConfig) {
	nv := len(px)
	for _, i := range vi {
		if i < 0 || i >= nv {
			return
		}
	}

	x0, y0, z0 := px[vi[0]], py[vi[0]], pz[vi[0]]
	x1, y1, z1 := px[vi[1]], py[vi[1]], pz[vi[1]]
	x2, y2, z2 := px[vi[2]], py[vi[2]], pz[vi[2]]
	if math.IsNaN(x0) || math.IsNaN(x1) || math.IsNaN(x2) {
		return
	}

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	gain := s.Shade * lc.Exposure
	sunR := lc.SunColor[0]
	sunG := lc.SunColor[1]
	sunB := lc.SunColor[2]
	invGamma := lc.InvGamma

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			cr, cg, cb, ca := s.R, s.G, s.B, s.A
			if s.Tex != nil {
				u := w0*s.UV[0][0] + w1*s.UV[1][0] + w2*s.UV[2][0]
				v := w0*s.UV[0][1] + w1*s.UV[1][1] + w2*s.UV[2][1]
				tr, tg, tb, ta := SampleTexture(s.Tex, u, v)
				cr = uint8(uint16(cr) * uint16(tr) / 255)
				cg = uint8(uint16(cg) * uint16(tg) / 255)
				cb = uint8(uint16(cb) * uint16(tb) / 255)
				ca = uint8(uint16(ca) * uint16(ta) / 255)
			}

			// Skip transparent texels
			if ca < 8 {
				continue
			}
			fb.ZBuf[zIdx] = z

			// sRGB decode → linear (LUT), shade, tone map, encode
			fr := math.Pow(ACESTonemap(srgbToLinear[cr]*gain*sunR), invGamma)
			fg := math.Pow(ACESTonemap(srgbToLinear[cg]*gain*sunG), invGamma)
			fbl := math.Pow(ACESTonemap(srgbToLinear[cb]*gain*sunB), invGamma)

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = clamp255(fr * 255)
			fb.Color[pxIdx+1] = clamp255(fg * 255)
			fb.Color[pxIdx+2] = clamp255(fbl * 255)
			fb.Color[pxIdx+3] = 255
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
