package tracer

import (
	"image"
	"image/color"

	"github.com/achilleasa/lbvh/types"
	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/imgio"
)

// Display gamma applied after tone-mapping.
const displayGamma = 2.2

// Map accumulated radiance to a gamma corrected 8-bit image using the simple
// Reinhard operator: c' = c*e / (1 + c*e) where e is the exposure.
func TonemapSimpleReinhard(frame []types.Vec3, frameW, frameH uint32, exposure float32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(frameW), int(frameH)))
	for index, radiance := range frame {
		var rgb [3]uint8
		for i := 0; i < 3; i++ {
			c := max(radiance[i], 0) * exposure
			rgb[i] = uint8(255 * c / (1 + c))
		}
		img.SetRGBA(index%int(frameW), index/int(frameW), color.RGBA{rgb[0], rgb[1], rgb[2], 255})
	}

	return adjust.Gamma(img, displayGamma)
}

// Tone-map the last rendered frame and save it as a PNG image.
func (tr *Tracer) SaveFrame(filename string, exposure float32) error {
	img := TonemapSimpleReinhard(tr.Frame(), tr.opts.FrameW, tr.opts.FrameH, exposure)
	return imgio.Save(filename, img, imgio.PNGEncoder())
}
