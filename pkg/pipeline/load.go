package pipeline

import (
	"github.com/paulmach/orb"

	"github.com/matzehuels/gauzecut/pkg/cloth"
	"github.com/matzehuels/gauzecut/pkg/pattern"
)

// LoadPattern loads opts.Pattern. When the file does not exist and a
// width and height are set, it authors a rectangle of that extent centred
// on the sheet, saves it to opts.Pattern and reports authored = true.
func LoadPattern(opts Options) (p *pattern.Pattern, authored bool, err error) {
	if !opts.Authoring() {
		p, err := pattern.Load(opts.Pattern)
		return p, false, err
	}
	p, err = pattern.Rectangle(centred(opts.Sim.Mesh, opts.Width, opts.Height), opts.Width, opts.Height, opts.AuthorStep)
	if err != nil {
		return nil, false, err
	}
	if err := pattern.Save(p, opts.Pattern); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// centred returns the origin that centres a w×h rectangle on the sheet.
func centred(spec cloth.MeshSpec, w, h float64) orb.Point {
	return orb.Point{
		spec.OriginX + (spec.Width()-w)/2,
		spec.OriginY + (spec.Height()-h)/2,
	}
}
