package pdftable

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
)

// Preflight validates the PDF in relaxed mode and returns its page count.
func Preflight(path string) (int, error) {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	if err := api.ValidateFile(path, conf); err != nil {
		return 0, eris.Wrapf(err, "pdftable: validate %s", path)
	}

	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "pdftable: page count %s", path)
	}
	if n == 0 {
		return 0, eris.Errorf("pdftable: %s has no pages", path)
	}
	return n, nil
}
