package policy

import (
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/stleox/seecov/pkg/collector"
	"github.com/stleox/seecov/pkg/config"
)

// FilePolicy is a convenience should-trace policy: a file is traced when it
// matches one of the include prefixes (all files when none are given) and
// none of the exclude fragments. The traced target name is the canonical
// (cleaned, absolute) path.
//
// The collector already caches the verdict per filename; the LRU here caches
// path canonicalization across collector instances sharing one policy,
// where eviction is harmless.
type FilePolicy struct {
	include []string
	exclude []string

	// cache: raw filename -> canonical path
	canon *lru.Cache[string, string]
}

func New(include, exclude []string) *FilePolicy {
	canon, _ := lru.New[string, string](config.MaxNumCanonPath)
	return &FilePolicy{
		include: include,
		exclude: exclude,
		canon:   canon,
	}
}

// ShouldTrace is a collector.ShouldTraceFunc.
func (p *FilePolicy) ShouldTrace(filename string, _ collector.FrameView) (*collector.Disposition, error) {
	canonical := p.canonical(filename)

	for _, frag := range p.exclude {
		if strings.Contains(canonical, frag) {
			return &collector.Disposition{Trace: false}, nil
		}
	}

	if len(p.include) > 0 {
		included := false
		for _, prefix := range p.include {
			if strings.HasPrefix(canonical, prefix) {
				included = true
				break
			}
		}
		if !included {
			return &collector.Disposition{Trace: false}, nil
		}
	}

	return &collector.Disposition{
		Trace:          true,
		SourceFilename: canonical,
	}, nil
}

func (p *FilePolicy) canonical(filename string) string {
	if hit, ok := p.canon.Get(filename); ok {
		return hit
	}

	canonical := filepath.Clean(filename)
	if !filepath.IsAbs(canonical) {
		abs, err := filepath.Abs(canonical)
		if err != nil {
			logrus.WithError(err).Warnf("SeeCov couldn't canonicalize %q", filename)
		} else {
			canonical = abs
		}
	}
	if resolved, err := filepath.EvalSymlinks(canonical); err == nil {
		canonical = resolved
	}

	p.canon.Add(filename, canonical)
	return canonical
}
