package emit

import (
	"bytes"
	"os"

	"github.com/hashicorp/go-multierror"
)

// Sink collects the generated text. Both streams are append-only.
type Sink struct {
	Prototypes bytes.Buffer
	Bodies     bytes.Buffer
}

// WriteFiles writes the prototype and body streams, reporting every
// failed write.
func (s *Sink) WriteFiles(prototypesPath, bodiesPath string) error {
	var errs error
	if err := os.WriteFile(prototypesPath, s.Prototypes.Bytes(), 0644); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := os.WriteFile(bodiesPath, s.Bodies.Bytes(), 0644); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}
