package emit

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/chazu/interrogate/metadb"
	"github.com/chazu/interrogate/remap"
)

// Summary reports what a run produced and what it left out.
type Summary struct {
	Library string
	Binding string

	Types     int
	Functions int
	Wrappers  int
	Manifests int
	Elements  int

	// ForcedVoid counts wrappers whose result could not be converted.
	ForcedVoid int
	// Unsupported counts remaps the binding cannot express.
	Unsupported int
	Skipped     []*remap.SkipError

	PrototypeBytes int
	BodyBytes      int
}

func (s *Summary) count(db *metadb.Database, sink *Sink) {
	s.Types = len(db.Types())
	s.Functions = len(db.Functions())
	s.Wrappers = len(db.Wrappers())
	s.Manifests = len(db.Manifests())
	s.Elements = len(db.Elements())
	s.PrototypeBytes = sink.Prototypes.Len()
	s.BodyBytes = sink.Bodies.Len()
}

func (s *Summary) String() string {
	return fmt.Sprintf("%s (%s binding): %s wrappers for %s functions over %s types, %s skipped, %s of code",
		s.Library, s.Binding,
		humanize.Comma(int64(s.Wrappers)),
		humanize.Comma(int64(s.Functions)),
		humanize.Comma(int64(s.Types)),
		humanize.Comma(int64(len(s.Skipped))),
		humanize.Bytes(uint64(s.PrototypeBytes+s.BodyBytes)))
}

// WriteSkipped lists every skipped callable with its reason.
func (s *Summary) WriteSkipped(w io.Writer) {
	for _, skip := range s.Skipped {
		fmt.Fprintf(w, "  skipped %s\n", skip)
	}
}

// Log reports the summary at info level.
func (s *Summary) Log() {
	log := logger()
	log.Info(s.String())
	if s.ForcedVoid > 0 {
		log.Infof("%s wrappers return void because their result type is unsupported", humanize.Comma(int64(s.ForcedVoid)))
	}
	if s.Unsupported > 0 {
		log.Infof("%s remaps are not supported by the %s binding", humanize.Comma(int64(s.Unsupported)), s.Binding)
	}
	for _, skip := range s.Skipped {
		log.Infof("skipped %s", skip)
	}
}
