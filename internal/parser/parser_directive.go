package parser

import (
	"strconv"
	"strings"

	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
)

// directiveWords splits a directive's literal body into words, keeping
// double-quoted segments (including their quotes) intact as single words.
func directiveWords(s string) []string {
	var words []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ' ' && !inQuote:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return words
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if v, err := strconv.Unquote(s); err == nil {
			return v
		}
		return s[1 : len(s)-1]
	}
	return s
}

// parseDirective turns one DIRECTIVE token into a structured *ast.Directive.
// Unrecognized directive names are recorded as a layout error but
// otherwise skipped so the rest of the module still parses.
func (p *Parser) parseDirective(tok token.Token) *ast.Directive {
	words := directiveWords(tok.Literal)
	if len(words) == 0 {
		p.errorf(diag.LayWasmNoBody, "empty directive")
		return nil
	}
	d := &ast.Directive{SpanVal: tok.Span}
	switch words[0] {
	case "entry":
		d.Kind = ast.DirEntry
		if len(words) > 1 {
			d.Name = words[1]
		}
	case "target":
		d.Kind = ast.DirTarget
		if len(words) > 1 {
			d.Target = words[1]
		}
	case "indent":
		d.Kind = ast.DirIndentWidth
		if len(words) > 1 {
			if n, err := strconv.Atoi(words[1]); err == nil {
				d.N = n
				p.indentUnit = n
			}
		}
	case "use":
		d.Kind = ast.DirUse
		if len(words) > 1 {
			d.Name = unquote(words[1])
		}
	case "include":
		d.Kind = ast.DirInclude
		if len(words) > 1 {
			d.Name = unquote(words[1])
		}
	case "prelude":
		d.Kind = ast.DirPrelude
		if len(words) > 1 {
			d.Name = unquote(words[1])
		}
	case "noprelude":
		d.Kind = ast.DirNoPrelude
	case "import":
		d.Kind = ast.DirImport
		p.parseImportDirective(d, words[1:])
	case "extern":
		d.Kind = ast.DirExtern
		p.parseExternDirective(d, words[1:])
	default:
		if strings.HasPrefix(words[0], "if[") || words[0] == "if" && len(words) > 1 && strings.HasPrefix(words[1], "[") {
			p.parseIfDirective(d, tok.Literal)
			break
		}
		p.errorf(diag.LayWasmNoBody, "unknown directive %q", words[0])
		return nil
	}
	return d
}

func (p *Parser) parseIfDirective(d *ast.Directive, lit string) {
	open := strings.Index(lit, "[")
	close := strings.Index(lit, "]")
	if open < 0 || close < 0 || close < open {
		p.errorf(diag.LayWasmNoBody, "malformed #if[...] directive")
		return
	}
	inner := lit[open+1 : close]
	eq := strings.Index(inner, "=")
	if eq < 0 {
		p.errorf(diag.LayWasmNoBody, "malformed #if[...] directive")
		return
	}
	key := strings.TrimSpace(inner[:eq])
	val := strings.TrimSpace(inner[eq+1:])
	d.IfKey = key
	d.IfValue = val
	switch key {
	case "target":
		d.Kind = ast.DirIfTarget
	case "profile":
		d.Kind = ast.DirIfProfile
	default:
		p.errorf(diag.LayWasmNoBody, "unknown #if[...] key %q", key)
	}
}

func (p *Parser) parseImportDirective(d *ast.Directive, words []string) {
	if len(words) == 0 {
		p.errorf(diag.LayWasmNoBody, "#import requires a path")
		return
	}
	d.ImportPath = unquote(words[0])
	rest := words[1:]
	// optional leading `pub`
	if len(rest) > 0 && rest[0] == "pub" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		d.ImportClause = ast.ImportDefault
		return
	}
	if rest[0] != "as" {
		return
	}
	rest = rest[1:]
	if len(rest) == 0 {
		return
	}
	switch {
	case rest[0] == "*":
		d.ImportClause = ast.ImportOpen
	case rest[0] == "@merge":
		d.ImportClause = ast.ImportMerge
	case strings.HasPrefix(rest[0], "{"):
		d.ImportClause = ast.ImportSelective
		joined := strings.Join(rest, " ")
		joined = strings.TrimPrefix(joined, "{")
		joined = strings.TrimSuffix(joined, "}")
		for _, entry := range strings.Split(joined, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			sel := ast.ImportSelector{}
			if strings.HasSuffix(entry, "::*") {
				sel.Wildcard = true
				sel.Path = entry
			} else if parts := strings.Fields(entry); len(parts) == 3 && parts[1] == "as" {
				sel.Path = parts[0]
				sel.Alias = parts[2]
			} else {
				sel.Path = entry
			}
			d.ImportSelector = append(d.ImportSelector, sel)
		}
	default:
		d.ImportClause = ast.ImportAlias
		d.ImportAlias = rest[0]
	}
}

func (p *Parser) parseExternDirective(d *ast.Directive, words []string) {
	if len(words) < 4 {
		p.errorf(diag.LayWasmNoBody, "#extern requires module, symbol, fn, and local name")
		return
	}
	d.ExternModule = unquote(words[0])
	d.ExternSymbol = unquote(words[1])
	if words[2] != "fn" {
		p.errorf(diag.LayWasmNoBody, "#extern expects `fn` before the local name")
		return
	}
	d.ExternLocal = words[3]
	if len(words) > 4 {
		sig := strings.Join(words[4:], " ")
		d.ExternSig = parseExternSig(sig)
	}
}

// parseExternSig parses `<(T1, T2)->R>` or `*>R`.
func parseExternSig(s string) ast.ExternSig {
	s = strings.TrimSpace(s)
	sig := ast.ExternSig{}
	if strings.HasPrefix(s, "*>") {
		sig.Impure = true
		sig.Result = strings.TrimSpace(s[2:])
		return sig
	}
	s = strings.TrimPrefix(s, "<")
	s = strings.TrimSuffix(s, ">")
	arrowPure := strings.Index(s, "->")
	arrowImpure := strings.Index(s, "*>")
	arrow := arrowPure
	if arrow < 0 || (arrowImpure >= 0 && arrowImpure < arrow) {
		arrow = arrowImpure
		sig.Impure = arrowImpure >= 0
	}
	if arrow < 0 {
		sig.Result = s
		return sig
	}
	paramsPart := strings.TrimSpace(s[:arrow])
	paramsPart = strings.TrimPrefix(paramsPart, "(")
	paramsPart = strings.TrimSuffix(paramsPart, ")")
	if paramsPart != "" {
		for _, p := range strings.Split(paramsPart, ",") {
			sig.Params = append(sig.Params, strings.TrimSpace(p))
		}
	}
	sig.Result = strings.TrimSpace(s[arrow+2:])
	return sig
}
