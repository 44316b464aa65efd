// Package search filters, ranks and pages the package catalog.
package search

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/danisty/LethalManager/internal/catalog"
	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/logging"
	"github.com/rs/zerolog"
)

const (
	// similarityThreshold is the minimum word similarity for a fuzzy hit
	similarityThreshold = 0.80
	defaultMaxOffset    = 5
)

// Snapshotter provides the current catalog snapshot
type Snapshotter interface {
	Snapshot() *catalog.Snapshot
}

// State is the supersession state of the engine
type State int

const (
	Idle State = iota
	Searching
	CancelRequested
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case CancelRequested:
		return "cancel-requested"
	default:
		return "idle"
	}
}

// Engine runs catalog searches. When a new search starts while another is
// still scanning, the older one stops at its next entry and returns
// errors.ErrSearchCancelled, so the latest search always wins.
type Engine struct {
	index Snapshotter
	log   zerolog.Logger

	mu    sync.Mutex
	state State
	gen   uint64 // generation of the most recent search

	scanHook func() // called before each entry is scanned; tests only
}

// NewEngine creates a search engine over index
func NewEngine(index Snapshotter) *Engine {
	return &Engine{
		index: index,
		log:   logging.GetLogger("search"),
	}
}

// State returns the current supersession state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) begin() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Idle {
		e.state = CancelRequested
	}
	e.gen++
	return e.gen
}

// superseded reports whether a newer search started after generation gen
func (e *Engine) superseded(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return true
	}
	e.state = Searching
	return false
}

func (e *Engine) finish(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen == gen {
		e.state = Idle
	}
}

// Search runs q against the current catalog snapshot
func (e *Engine) Search(q Query) (*Results, error) {
	if q.Page < 0 {
		return nil, errors.Newf(errors.ErrInvalidInput, "invalid page %d", q.Page)
	}
	if q.PageSize < 0 {
		return nil, errors.Newf(errors.ErrInvalidInput, "invalid page size %d", q.PageSize)
	}
	size := q.PageSize
	if size == 0 {
		size = PageSize
	}

	gen := e.begin()
	defer e.finish(gen)

	snap := e.index.Snapshot()
	m := newMatcher(q.Text)

	var matches []catalog.Package
	for i := range snap.Packages {
		if e.scanHook != nil {
			e.scanHook()
		}
		if e.superseded(gen) {
			e.log.Debug().Str("query", q.Text).Int("scanned", i).Msg("Search superseded")
			return nil, errors.ErrSearchCancelled
		}

		p := &snap.Packages[i]
		if p.FullName == catalog.BootstrapPackage {
			continue
		}
		if !matchesTypes(q.Types, p) || !matchesCategories(q.Categories, p) {
			continue
		}
		if m.match(p) {
			matches = append(matches, *p)
		}
	}

	sortPackages(matches, q.Sort)

	results := &Results{
		Categories: snap.Categories,
		Pages:      len(matches) / size,
		Total:      len(matches),
	}
	start := q.Page * size
	if start < len(matches) {
		results.Mods = matches[start:min(start+size, len(matches))]
	}

	e.log.Debug().
		Str("query", q.Text).
		Int("total", results.Total).
		Int("page", q.Page).
		Msg("Search completed")

	return results, nil
}

type matcher struct {
	re    *regexp.Regexp
	query string
}

// newMatcher compiles the query as a case-insensitive regular expression,
// matching it literally when it is not a valid pattern.
func newMatcher(query string) *matcher {
	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	}
	return &matcher{re: re, query: strings.ToLower(query)}
}

func (m *matcher) match(p *catalog.Package) bool {
	description := ""
	if latest, ok := p.Latest(); ok {
		description = latest.Description
	}
	content := p.FullName + " " + p.Name + " " + description

	if m.re.MatchString(content) {
		return true
	}

	for _, word := range strings.Fields(content) {
		if !isASCII(word) {
			continue
		}
		if Similarity(m.query, strings.ToLower(word)) >= similarityThreshold {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func sortPackages(packages []catalog.Package, key SortKey) {
	var less func(a, b *catalog.Package) bool
	switch key {
	case SortRating:
		less = func(a, b *catalog.Package) bool { return a.RatingScore > b.RatingScore }
	case SortUpdated:
		less = func(a, b *catalog.Package) bool { return a.DateUpdated.After(b.DateUpdated) }
	case SortCreated:
		less = func(a, b *catalog.Package) bool { return a.DateCreated.After(b.DateCreated) }
	case SortDownloads:
		less = func(a, b *catalog.Package) bool { return latestDownloads(a) > latestDownloads(b) }
	case SortName:
		less = func(a, b *catalog.Package) bool { return a.Name < b.Name }
	default:
		return
	}
	sort.SliceStable(packages, func(i, j int) bool { return less(&packages[i], &packages[j]) })
}

func latestDownloads(p *catalog.Package) int64 {
	if v, ok := p.Latest(); ok {
		return v.Downloads
	}
	return 0
}
