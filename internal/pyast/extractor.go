// Package pyast extracts lightweight function descriptors from Python source
// files using tree-sitter. It is deliberately shallow: only module-level
// functions are reported and no semantic analysis is performed.
package pyast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

const (
	// DefaultMaxFileSize bounds how much source a single Extract call accepts.
	DefaultMaxFileSize = 10 * 1024 * 1024
	// DefaultCacheSize is the number of distinct file contents memoised.
	DefaultCacheSize = 256
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithCacheSize sets the parse cache capacity. n <= 0 disables caching.
func WithCacheSize(n int) Option {
	return func(e *Extractor) { e.cacheSize = n }
}

// WithMaxFileSize sets the largest file, in bytes, Extract will parse.
func WithMaxFileSize(bytes int64) Option {
	return func(e *Extractor) {
		if bytes > 0 {
			e.maxFileSize = bytes
		}
	}
}

// Extractor parses Python files and returns their module-level functions.
// It is safe for concurrent use: every call builds its own tree-sitter parser
// and the cache is internally synchronised.
type Extractor struct {
	maxFileSize int64
	cacheSize   int
	cache       *lru.Cache[string, []Descriptor]
}

// NewExtractor returns an Extractor with the given options applied.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{maxFileSize: DefaultMaxFileSize, cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(e)
	}
	if e.cacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		e.cache, _ = lru.New[string, []Descriptor](e.cacheSize)
	}
	return e
}

// Extract reads path and returns its module-level functions in source order.
// It fails with *ReadError when the file cannot be read or decoded and with
// *ParseError when its syntax cannot be parsed. Cancellation of ctx is
// returned as ctx.Err(), unwrapped.
func (e *Extractor) Extract(ctx context.Context, path string) ([]Descriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &ReadError{Path: path, Err: errors.New("is a directory")}
	}
	if info.Size() > e.maxFileSize {
		return nil, &ReadError{Path: path, Err: fmt.Errorf("size %d exceeds limit %d", info.Size(), e.maxFileSize)}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return e.ExtractSource(ctx, path, content)
}

// ExtractSource is Extract for content already in memory. path is only used
// for error reporting.
func (e *Extractor) ExtractSource(ctx context.Context, path string, content []byte) ([]Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, &ReadError{Path: path, Err: ErrNotUTF8}
	}

	sum := sha256.Sum256(content)
	key := hex.EncodeToString(sum[:])
	if e.cache != nil {
		if ds, ok := e.cache.Get(key); ok {
			return slices.Clone(ds), nil
		}
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		// Cancellation is not a property of the file.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{Path: path, Err: ErrSyntax}
	}
	if root.HasError() {
		return nil, &ParseError{Path: path, Line: firstErrorLine(root), Err: ErrSyntax}
	}

	ds := make([]Descriptor, 0)
	for i := 0; i < int(root.NamedChildCount()); i++ {
		fn := functionNode(root.NamedChild(i))
		if fn == nil {
			continue
		}
		if d, ok := describe(fn, content); ok {
			ds = append(ds, d)
		}
	}

	if e.cache != nil {
		e.cache.Add(key, slices.Clone(ds))
	}
	return ds, nil
}

// functionNode returns the function_definition for a module-level statement,
// unwrapping decorators. Anything else yields nil.
func functionNode(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "function_definition":
		return n
	case "decorated_definition":
		def := n.ChildByFieldName("definition")
		if def != nil && def.Type() == "function_definition" {
			return def
		}
	}
	return nil
}

func describe(fn *sitter.Node, content []byte) (Descriptor, bool) {
	nameNode := fn.ChildByFieldName("name")
	if nameNode == nil {
		return Descriptor{}, false
	}
	name := nameNode.Content(content)
	if name == "" {
		return Descriptor{}, false
	}
	return Descriptor{
		Name:       name,
		Parameters: parameterNames(fn.ChildByFieldName("parameters"), content),
		Docstring:  docstring(fn.ChildByFieldName("body"), content),
		Source:     strings.TrimSpace(fn.Content(content)),
	}, true
}

// parameterNames lists named parameters in order. Splat parameters and the
// bare "*" and "/" markers are skipped.
func parameterNames(params *sitter.Node, content []byte) []string {
	names := make([]string, 0)
	if params == nil {
		return names
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			names = append(names, p.Content(content))
		case "typed_parameter":
			if first := p.NamedChild(0); first != nil && first.Type() == "identifier" {
				names = append(names, first.Content(content))
			}
		case "default_parameter", "typed_default_parameter":
			if n := p.ChildByFieldName("name"); n != nil && n.Type() == "identifier" {
				names = append(names, n.Content(content))
			}
		}
	}
	return names
}

func docstring(body *sitter.Node, content []byte) string {
	if body == nil {
		return ""
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
			return ""
		}
		lit, ok := literalText(stmt.NamedChild(0), content)
		if !ok {
			return ""
		}
		return cleanDoc(lit)
	}
	return ""
}

// literalText returns the value of a string or implicitly concatenated string
// node. Any part that is not a plain text literal rejects the whole node.
func literalText(n *sitter.Node, content []byte) (string, bool) {
	switch n.Type() {
	case "string":
		return stringLiteral(n.Content(content))
	case "concatenated_string":
		var b strings.Builder
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "comment" {
				continue
			}
			part, ok := literalText(c, content)
			if !ok {
				return "", false
			}
			b.WriteString(part)
		}
		return b.String(), true
	}
	return "", false
}

func firstErrorLine(n *sitter.Node) int {
	if n.Type() == "ERROR" || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !c.HasError() && !c.IsMissing() {
			continue
		}
		if line := firstErrorLine(c); line > 0 {
			return line
		}
	}
	return 0
}
