package catalog

import (
	"context"
	"sync/atomic"

	"github.com/nulifyer/gugetctl/logger"
	"github.com/nulifyer/gugetctl/project"
	"github.com/nulifyer/gugetctl/search"
	"github.com/nulifyer/gugetctl/source"
)

// Result is one finished search. Seq grows with every search started, so
// a consumer can drop results that a newer search superseded.
type Result struct {
	Seq      uint64
	Request  search.Request
	Packages []*search.Package
	Err      error
}

// Searcher runs catalog queries in the background and hands each result to
// Deliver, which is called from the query goroutine.
type Searcher struct {
	Catalog  *Catalog
	Projects []project.Project
	Deliver  func(Result)
	Context  context.Context
	// Mapping, when set, supplies the current source mapping for each
	// search and overrides Catalog.Mapping.
	Mapping func() *source.Mapping

	seq atomic.Uint64
}

func (s *Searcher) Search(req search.Request) {
	seq := s.seq.Add(1)
	ctx := s.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cat := *s.Catalog
	if s.Mapping != nil {
		cat.Mapping = s.Mapping()
	}
	go func() {
		pkgs, err := cat.Query(ctx, req, s.Projects)
		if err != nil {
			logger.Warn("search %q failed: %v", req.Text, err)
		} else {
			logger.Debug("search %q: %d result(s)", req.Text, len(pkgs))
		}
		if s.Deliver != nil {
			s.Deliver(Result{Seq: seq, Request: req, Packages: pkgs, Err: err})
		}
	}()
}

// Latest reports whether seq belongs to the most recently started search.
func (s *Searcher) Latest(seq uint64) bool { return s.seq.Load() == seq }
