package agast

import (
	"fmt"
	"slices"
	"sort"

	"github.com/agnivade/levenshtein"
)

// Production describes what a grammar declares about one of its
// productions.
type Production struct {
	Name string

	// Node productions build a node of their own
	Node bool

	// Cover productions pass their reference through to whatever
	// node their body builds
	Cover bool

	// Token productions build leaf nodes
	Token bool
}

// Language is a grammar the VM can start frames in
type Language interface {
	CanonicalURL() string
	Production(name string) (Production, bool)
}

// Cooker is implemented by languages that can compute the cooked
// value of a node bound to the `@` reference.
type Cooker interface {
	Cooked(node NodeView, span string, registry *Registry) (any, error)
}

type CookFunc func(node NodeView, span string, registry *Registry) (any, error)

// Grammar is a Language declared as a plain list of productions
type Grammar struct {
	url         string
	productions map[string]Production
	cook        CookFunc
}

func NewGrammar(url string, productions ...Production) *Grammar {
	g := &Grammar{url: url, productions: make(map[string]Production, len(productions))}
	for _, p := range productions {
		g.productions[p.Name] = p
	}
	return g
}

// WithCooker sets the function used to cook `@` references
func (g *Grammar) WithCooker(fn CookFunc) *Grammar {
	g.cook = fn
	return g
}

func (g *Grammar) CanonicalURL() string { return g.url }

func (g *Grammar) Production(name string) (Production, bool) {
	p, ok := g.productions[name]
	return p, ok
}

func (g *Grammar) ProductionNames() []string {
	names := make([]string, 0, len(g.productions))
	for name := range g.productions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g *Grammar) Cooked(node NodeView, span string, registry *Registry) (any, error) {
	if g.cook == nil {
		return nil, nil
	}
	return g.cook(node, span, registry)
}

// Registry maps canonical URLs to languages
type Registry struct {
	languages map[string]Language
}

func NewRegistry(languages ...Language) *Registry {
	r := &Registry{languages: make(map[string]Language, len(languages))}
	for _, l := range languages {
		r.languages[l.CanonicalURL()] = l
	}
	return r
}

func (r *Registry) Register(l Language) error {
	url := l.CanonicalURL()
	if _, ok := r.languages[url]; ok {
		return fmt.Errorf("language `%s` already registered", url)
	}
	r.languages[url] = l
	return nil
}

func (r *Registry) Get(url string) (Language, bool) {
	if r == nil {
		return nil, false
	}
	l, ok := r.languages[url]
	return l, ok
}

func (r *Registry) URLs() []string {
	urls := make([]string, 0, len(r.languages))
	for url := range r.languages {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// suggestionDistance is how far a name may be from a candidate to be
// suggested
const suggestionDistance = 3

// closestStrings returns the candidates closest to `name`
func closestStrings(name string, candidates []string) []string {
	minDistance := suggestionDistance + 1
	closest := []string{}
	for _, c := range candidates {
		dist := levenshtein.ComputeDistance(name, c)
		switch {
		case dist < minDistance:
			closest = []string{c}
			minDistance = dist
		case dist == minDistance:
			closest = append(closest, c)
		}
	}
	slices.Sort(closest)
	return closest
}

func suggestProductions(l Language, name string) []string {
	lister, ok := l.(interface{ ProductionNames() []string })
	if !ok {
		return nil
	}
	return closestStrings(name, lister.ProductionNames())
}
