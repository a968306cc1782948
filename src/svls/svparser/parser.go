package svparser

import (
	"strings"

	"github.com/svlsp/svls-core/src/svls/entity"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
)

// parser is a recursive-descent parser over a flat token stream. It is
// deliberately tolerant: unrecognized constructs are skipped by scanning
// forward to the next statement boundary (`;`) or block terminator rather
// than failing the whole parse, matching the shallow-compilation spirit of
// the rest of this core (spec.md's "shallow compilation" glossary entry).
type parser struct {
	buffer entity.BufferId
	toks   []*entity.Token
	pos    int

	macros []*svsyntax.Node
	diags  []svsyntax.Diagnostic
}

// Parse lexes and parses src as the primary (and only, for this buffer)
// source text, returning a SyntaxTree rooted at a CompilationUnit node.
func Parse(buffer entity.BufferId, src string) *svsyntax.SyntaxTree {
	toks := newLexer(buffer, src).Tokenize()
	p := &parser{buffer: buffer, toks: toks}
	root := p.parseCompilationUnit(len(src))
	return &svsyntax.SyntaxTree{
		Buffer:      buffer,
		Root:        root,
		Macros:      p.macros,
		Diagnostics: p.diags,
	}
}

func (p *parser) cur() *entity.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF sentinel
	}
	return p.toks[p.pos]
}

func (p *parser) at(offset int) *entity.Token {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *parser) advance() *entity.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) isEOF() bool { return p.cur().Kind == entity.TokenEOF }

func (p *parser) isKeyword(raw string) bool {
	return p.cur().Kind == entity.TokenKeyword && p.cur().Raw == raw
}

func (p *parser) isPunct(raw string) bool {
	c := p.cur()
	return (c.Kind == entity.TokenPunctuation || c.Kind == entity.TokenOperator) && c.Raw == raw
}

func (p *parser) diag(sev svsyntax.DiagnosticSeverity, rng entity.SourceRange, msg string) {
	p.diags = append(p.diags, svsyntax.Diagnostic{Range: rng, Severity: sev, Message: msg})
}

func (p *parser) parseCompilationUnit(srcLen int) *svsyntax.Node {
	startLoc := entity.SourceLocation{Buffer: p.buffer, Offset: 0}
	root := &svsyntax.Node{Kind: svsyntax.NodeCompilationUnit, Range: entity.SourceRange{Start: startLoc, End: entity.SourceLocation{Buffer: p.buffer, Offset: srcLen}}}
	for !p.isEOF() {
		before := p.pos
		if item := p.parseTopLevelItem(); item != nil {
			item.Parent = root
			root.Children = append(root.Children, item)
		}
		if p.pos == before {
			// Safety valve: never loop forever on an unrecognized token.
			p.advance()
		}
	}
	return root
}

func (p *parser) parseTopLevelItem() *svsyntax.Node {
	switch {
	case p.cur().Kind == entity.TokenMacroUsage && p.cur().Value == "define":
		return p.parseDefineDirective()
	case p.cur().Kind == entity.TokenMacroUsage && p.cur().Value == "include":
		return p.parseIncludeDirective()
	case p.isKeyword("module"):
		return p.parseModuleLike(svsyntax.NodeModuleDeclaration, "endmodule")
	case p.isKeyword("interface"):
		return p.parseModuleLike(svsyntax.NodeInterfaceDeclaration, "endinterface")
	case p.isKeyword("program"):
		return p.parseModuleLike(svsyntax.NodeProgramDeclaration, "endprogram")
	case p.isKeyword("package"):
		return p.parsePackageDeclaration()
	case p.isKeyword("class"):
		return p.parseClassDeclaration()
	case p.cur().Kind == entity.TokenIdentifier || p.cur().Kind == entity.TokenSystemIdentifier:
		return p.parseExpressionStatement()
	default:
		return p.skipStatement()
	}
}

// parseDefineDirective parses `define NAME(args) body..., consuming
// through the end of the (possibly backslash-continued) line.
func (p *parser) parseDefineDirective() *svsyntax.Node {
	start := p.cur().Range.Start
	tick := p.advance() // the `define token itself
	nameTok := p.cur()
	if nameTok.Kind == entity.TokenIdentifier {
		p.advance()
	}
	var formalArgs []*svsyntax.Node
	if p.isPunct("(") {
		p.advance()
		for !p.isPunct(")") && !p.isEOF() {
			if p.cur().Kind == entity.TokenIdentifier {
				argTok := p.advance()
				formalArgs = append(formalArgs, &svsyntax.Node{Kind: svsyntax.NodeIdentifierName, Name: argTok, Tokens: []*entity.Token{argTok}})
			} else {
				p.advance()
			}
			if p.isPunct(",") {
				p.advance()
			}
		}
		if p.isPunct(")") {
			p.advance()
		}
	}
	var bodyToks []*entity.Token
	for !p.isEOF() {
		if triviaHasNewline(p.cur().Trivia) {
			if len(bodyToks) > 0 && bodyToks[len(bodyToks)-1].Raw == "\\" {
				// Line continuation: the directive body keeps going onto
				// the next source line.
			} else {
				break
			}
		}
		bodyToks = append(bodyToks, p.advance())
	}
	end := p.cur().Range.Start
	node := &svsyntax.Node{
		Kind:   svsyntax.NodeDefineDirective,
		Range:  entity.SourceRange{Start: start, End: end},
		Name:   nameTok,
		Tokens: append([]*entity.Token{tick}, bodyToks...),
		Extra:  map[string][]*svsyntax.Node{"formalArgs": formalArgs},
	}
	p.macros = append(p.macros, node)
	return node
}

// triviaHasNewline reports whether any trivia token (whitespace or
// comment) attached ahead of the current token spans a newline, meaning
// the current token starts a new source line.
func triviaHasNewline(trivia []*entity.Token) bool {
	for _, t := range trivia {
		if strings.Contains(t.Raw, "\n") {
			return true
		}
	}
	return false
}

func (p *parser) parseIncludeDirective() *svsyntax.Node {
	start := p.cur().Range.Start
	tick := p.advance()
	var fileTok *entity.Token
	if p.cur().Kind == entity.TokenStringLiteral {
		fileTok = p.advance()
	}
	end := p.cur().Range.Start
	return &svsyntax.Node{
		Kind:   svsyntax.NodeIncludeDirective,
		Range:  entity.SourceRange{Start: start, End: end},
		Name:   fileTok,
		Tokens: []*entity.Token{tick},
	}
}

// parseModuleLike handles module/interface/program declarations, which
// share the same shape: keyword, name, optional #(params), optional
// (ports), ';', body items, end-keyword.
func (p *parser) parseModuleLike(kind svsyntax.NodeKind, endKeyword string) *svsyntax.Node {
	start := p.cur().Range.Start
	p.advance() // module/interface/program
	var nameTok *entity.Token
	if p.cur().Kind == entity.TokenIdentifier {
		nameTok = p.advance()
	}
	node := &svsyntax.Node{Kind: kind, Name: nameTok}

	var params []*svsyntax.Node
	if p.isPunct("#") {
		p.advance()
		params = p.parseParenGroup(p.parseParameterDeclarator)
	}
	var ports []*svsyntax.Node
	if p.isPunct("(") {
		ports = p.parseParenGroup(p.parsePortDeclarator)
	}
	if p.isPunct(";") {
		p.advance()
	}

	var body []*svsyntax.Node
	for !p.isEOF() && !p.isKeyword(endKeyword) {
		before := p.pos
		if item := p.parseBodyItem(); item != nil {
			item.Parent = node
			body = append(body, item)
		}
		if p.pos == before {
			p.advance()
		}
	}
	end := p.cur().Range.End
	if p.isKeyword(endKeyword) {
		p.advance()
	}

	node.Range = entity.SourceRange{Start: start, End: end}
	node.Children = body
	node.Extra = map[string][]*svsyntax.Node{"parameters": params, "ports": ports}
	return node
}

func (p *parser) parsePackageDeclaration() *svsyntax.Node {
	start := p.cur().Range.Start
	p.advance()
	var nameTok *entity.Token
	if p.cur().Kind == entity.TokenIdentifier {
		nameTok = p.advance()
	}
	if p.isPunct(";") {
		p.advance()
	}
	node := &svsyntax.Node{Kind: svsyntax.NodePackageDeclaration, Name: nameTok}
	var body []*svsyntax.Node
	for !p.isEOF() && !p.isKeyword("endpackage") {
		before := p.pos
		if item := p.parseBodyItem(); item != nil {
			item.Parent = node
			body = append(body, item)
		}
		if p.pos == before {
			p.advance()
		}
	}
	end := p.cur().Range.End
	if p.isKeyword("endpackage") {
		p.advance()
	}
	node.Range = entity.SourceRange{Start: start, End: end}
	node.Children = body
	return node
}

func (p *parser) parseClassDeclaration() *svsyntax.Node {
	start := p.cur().Range.Start
	p.advance()
	var nameTok *entity.Token
	if p.cur().Kind == entity.TokenIdentifier {
		nameTok = p.advance()
	}
	var params []*svsyntax.Node
	if p.isPunct("#") {
		p.advance()
		params = p.parseParenGroup(p.parseParameterDeclarator)
	}
	if p.isKeyword("extends") {
		p.advance()
		if p.cur().Kind == entity.TokenIdentifier {
			p.advance()
		}
	}
	if p.isPunct(";") {
		p.advance()
	}
	node := &svsyntax.Node{Kind: svsyntax.NodeClassDeclaration, Name: nameTok}
	var body []*svsyntax.Node
	for !p.isEOF() && !p.isKeyword("endclass") {
		before := p.pos
		if item := p.parseBodyItem(); item != nil {
			item.Parent = node
			body = append(body, item)
		}
		if p.pos == before {
			p.advance()
		}
	}
	end := p.cur().Range.End
	if p.isKeyword("endclass") {
		p.advance()
	}
	node.Range = entity.SourceRange{Start: start, End: end}
	node.Children = body
	node.Extra = map[string][]*svsyntax.Node{"parameters": params}
	return node
}

func (p *parser) parseBodyItem() *svsyntax.Node {
	switch {
	case p.cur().Kind == entity.TokenMacroUsage && p.cur().Value == "define":
		return p.parseDefineDirective()
	case p.cur().Kind == entity.TokenMacroUsage && p.cur().Value == "include":
		return p.parseIncludeDirective()
	case p.cur().Kind == entity.TokenMacroUsage:
		return p.parseMacroUsage()
	case p.isKeyword("import"):
		return p.parseImportExport(svsyntax.NodePackageImportItem)
	case p.isKeyword("export"):
		return p.parseImportExport(svsyntax.NodePackageExportItem)
	case p.isKeyword("parameter"), p.isKeyword("localparam"):
		return p.parseParameterDeclaration()
	case p.isKeyword("typedef"):
		return p.parseTypedef()
	case p.isKeyword("function"):
		return p.parseSubroutine(svsyntax.NodeFunctionDeclaration, "endfunction")
	case p.isKeyword("task"):
		return p.parseSubroutine(svsyntax.NodeTaskDeclaration, "endtask")
	case p.isKeyword("generate"):
		return p.parseGenerateBlock()
	case p.isKeyword("for") && p.at(1).Raw != "(":
		return p.skipStatement()
	case p.isKeyword("for"):
		return p.parseGenerateFor()
	case p.isKeyword("input"), p.isKeyword("output"), p.isKeyword("inout"):
		return p.parsePortDeclaration()
	case p.looksLikeHierarchyInstantiation():
		return p.parseHierarchyInstantiation()
	case p.looksLikeParameterizedClassReference():
		return p.parseParameterizedClassDeclaration()
	case p.looksLikeTypedDeclaration():
		return p.parseDataOrNetDeclaration()
	case isDataTypeStart(p.cur()):
		return p.parseDataOrNetDeclaration()
	case p.cur().Kind == entity.TokenIdentifier || p.cur().Kind == entity.TokenSystemIdentifier:
		return p.parseExpressionStatement()
	default:
		return p.skipStatement()
	}
}

// looksLikeTypedDeclaration applies the same lookahead shape as
// looksLikeHierarchyInstantiation but for `identifier identifier ;` /
// `identifier identifier =` — a variable or net declared with a
// user-defined (non-keyword) type name, e.g. `item_t x;`.
func (p *parser) looksLikeTypedDeclaration() bool {
	return p.cur().Kind == entity.TokenIdentifier &&
		p.at(1).Kind == entity.TokenIdentifier &&
		(p.at(2).Raw == ";" || p.at(2).Raw == "=" || p.at(2).Raw == ",")
}

// looksLikeParameterizedClassReference matches `identifier #( ... ) identifier`
// where the trailing token is NOT `(` (that shape belongs to
// looksLikeHierarchyInstantiation instead): a parameterized class-typed
// declaration such as `Queue#(8) q;`.
func (p *parser) looksLikeParameterizedClassReference() bool {
	if p.cur().Kind != entity.TokenIdentifier || !(p.at(1).Kind == entity.TokenPunctuation && p.at(1).Raw == "#") {
		return false
	}
	depth := 0
	j := 2
	for {
		t := p.at(j)
		if t.Kind == entity.TokenEOF {
			return false
		}
		if t.Raw == "(" {
			depth++
		} else if t.Raw == ")" {
			depth--
			if depth == 0 {
				j++
				break
			}
		}
		j++
	}
	return p.at(j).Kind == entity.TokenIdentifier && p.at(j+1).Raw != "("
}

// parseParameterizedClassDeclaration parses `ClassName #(args) name;`,
// wrapping the class reference in a NodeClassName so the inlay collector
// can offer parameter-name hints the same way it does for module ports.
func (p *parser) parseParameterizedClassDeclaration() *svsyntax.Node {
	start := p.cur().Range.Start
	classTok := p.advance()
	p.advance() // #
	paramAssigns := p.parseParenGroup(p.parseOrderedOrNamedArg)
	className := &svsyntax.Node{
		Kind:   svsyntax.NodeClassName,
		Name:   classTok,
		Tokens: []*entity.Token{classTok},
		Extra:  map[string][]*svsyntax.Node{"parameterAssignments": paramAssigns},
	}
	var declarators []*svsyntax.Node
	for p.cur().Kind == entity.TokenIdentifier {
		nameTok := p.advance()
		declarators = append(declarators, &svsyntax.Node{Kind: svsyntax.NodeIdentifierName, Name: nameTok, Tokens: []*entity.Token{nameTok}})
		if p.isPunct("=") {
			p.advance()
			for !p.isPunct(",") && !p.isPunct(";") && !p.isEOF() {
				p.advance()
			}
		}
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if p.isPunct(";") {
		p.advance()
	}
	end := p.cur().Range.Start
	node := &svsyntax.Node{
		Kind:     svsyntax.NodeDataDeclaration,
		Range:    entity.SourceRange{Start: start, End: end},
		Children: declarators,
		Extra:    map[string][]*svsyntax.Node{"classType": {className}},
	}
	className.Parent = node
	return node
}

// parseExpressionStatement wraps a bare name/call/assignment expression
// statement so its name chain (built by parseNameExpression) is reachable
// from the syntax tree for getSymbolAtToken and the inlay collector.
func (p *parser) parseExpressionStatement() *svsyntax.Node {
	start := p.cur().Range.Start
	lhs := p.parseNameExpression()
	if lhs == nil {
		return p.skipStatement()
	}
	children := []*svsyntax.Node{lhs}
	if p.isPunct("=") {
		p.advance()
		for !p.isPunct(";") && !p.isEOF() {
			p.advance()
		}
	}
	if p.isPunct(";") {
		p.advance()
	}
	end := p.cur().Range.Start
	node := &svsyntax.Node{Kind: svsyntax.NodeExpressionStatement, Range: entity.SourceRange{Start: start, End: end}, Children: children}
	for _, c := range children {
		c.Parent = node
	}
	return node
}

// parseNameExpression parses a chain of scope (`::`), member (`.`), index
// (`[...]`), and call (`(...)`) operators applied left to right onto a base
// identifier, e.g. `pkg::s.a[0].b` or `foo(a, b)`. Each wrapper node records
// only the tokens its own operator introduces — never tokens already owned
// by a node further down the chain — so the Syntax Indexer's
// token-to-parent map stays unambiguous. The base is threaded through via
// Extra["base"] so findEnclosingName/nameChainBase/nameChainSelectors in
// the analysis package can walk the chain without a dedicated node type
// per operator.
func (p *parser) parseNameExpression() *svsyntax.Node {
	if p.cur().Kind != entity.TokenIdentifier && p.cur().Kind != entity.TokenSystemIdentifier {
		return nil
	}
	baseTok := p.advance()
	cur := &svsyntax.Node{
		Kind:   svsyntax.NodeIdentifierName,
		Name:   baseTok,
		Tokens: []*entity.Token{baseTok},
		Range:  entity.SourceRange{Start: baseTok.Range.Start, End: baseTok.Range.End},
	}
	for {
		switch {
		case p.isPunct("::"):
			op := p.advance()
			var memberTok *entity.Token
			if p.cur().Kind == entity.TokenIdentifier {
				memberTok = p.advance()
			}
			next := &svsyntax.Node{
				Kind:   svsyntax.NodeScopedName,
				Name:   memberTok,
				Tokens: nonNilTokens(op, memberTok),
				Range:  entity.SourceRange{Start: cur.Range.Start, End: p.cur().Range.Start},
				Extra:  map[string][]*svsyntax.Node{"base": {cur}},
			}
			cur.Parent = next
			cur = next
		case p.isPunct("."):
			op := p.advance()
			var memberTok *entity.Token
			if p.cur().Kind == entity.TokenIdentifier {
				memberTok = p.advance()
			}
			next := &svsyntax.Node{
				Kind:   svsyntax.NodeMemberAccess,
				Name:   memberTok,
				Tokens: nonNilTokens(op, memberTok),
				Range:  entity.SourceRange{Start: cur.Range.Start, End: p.cur().Range.Start},
				Extra:  map[string][]*svsyntax.Node{"base": {cur}},
			}
			cur.Parent = next
			cur = next
		case p.isPunct("["):
			lbrack := p.advance()
			for !p.isPunct("]") && !p.isEOF() {
				p.advance()
			}
			var rbrack *entity.Token
			if p.isPunct("]") {
				rbrack = p.advance()
			}
			next := &svsyntax.Node{
				Kind:   svsyntax.NodeIndexSelector,
				Tokens: nonNilTokens(lbrack, rbrack),
				Range:  entity.SourceRange{Start: cur.Range.Start, End: p.cur().Range.Start},
				Extra:  map[string][]*svsyntax.Node{"base": {cur}},
			}
			cur.Parent = next
			cur = next
		case p.isPunct("("):
			lparen := p.cur()
			args := p.parseParenGroup(p.parseOrderedOrNamedArg)
			next := &svsyntax.Node{
				Kind:   svsyntax.NodeInvocationExpression,
				Name:   cur.Name,
				Tokens: []*entity.Token{lparen},
				Range:  entity.SourceRange{Start: cur.Range.Start, End: p.cur().Range.Start},
				Extra:  map[string][]*svsyntax.Node{"base": {cur}, "arguments": args},
			}
			cur.Parent = next
			cur = next
		default:
			return cur
		}
	}
}

// nonNilTokens collects the non-nil tokens among toks, in order.
func nonNilTokens(toks ...*entity.Token) []*entity.Token {
	var out []*entity.Token
	for _, t := range toks {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// looksLikeHierarchyInstantiation applies a conservative lookahead:
// `identifier identifier (` or `identifier #( ... ) identifier (`, which is
// the shape of `Foo u0(...)` or `Foo #(.W(8)) u0(...)`.
func (p *parser) looksLikeHierarchyInstantiation() bool {
	if p.cur().Kind != entity.TokenIdentifier {
		return false
	}
	i := 1
	if p.at(i).Kind == entity.TokenPunctuation && p.at(i).Raw == "#" {
		depth := 0
		j := i + 1
		for {
			t := p.at(j)
			if t.Kind == entity.TokenEOF {
				return false
			}
			if t.Raw == "(" {
				depth++
			} else if t.Raw == ")" {
				depth--
				if depth == 0 {
					j++
					break
				}
			}
			j++
		}
		i = j
	}
	return p.at(i).Kind == entity.TokenIdentifier && p.at(i+1).Raw == "("
}

func (p *parser) parseHierarchyInstantiation() *svsyntax.Node {
	start := p.cur().Range.Start
	typeTok := p.advance()
	var paramAssigns []*svsyntax.Node
	if p.isPunct("#") {
		p.advance()
		paramAssigns = p.parseParenGroup(p.parseOrderedOrNamedArg)
	}
	var instances []*svsyntax.Node
	for {
		instNameTok := p.advance()
		conns := p.parseParenGroup(p.parsePortConnection)
		inst := &svsyntax.Node{
			Kind:   svsyntax.NodeInstanceName,
			Name:   instNameTok,
			Tokens: []*entity.Token{instNameTok},
			Extra:  map[string][]*svsyntax.Node{"connections": conns},
		}
		instances = append(instances, inst)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if p.isPunct(";") {
		p.advance()
	}
	end := p.cur().Range.Start
	node := &svsyntax.Node{
		Kind:     svsyntax.NodeHierarchyInstantiation,
		Range:    entity.SourceRange{Start: start, End: end},
		Name:     typeTok,
		Tokens:   []*entity.Token{typeTok},
		Children: instances,
		Extra:    map[string][]*svsyntax.Node{"parameterAssignments": paramAssigns},
	}
	for _, inst := range instances {
		inst.Parent = node
	}
	return node
}

func (p *parser) parsePortConnection() *svsyntax.Node {
	if p.isPunct(".*") || (p.isPunct(".") && p.at(1).Raw == "*") {
		start := p.cur().Range.Start
		if p.advance().Raw == "." {
			p.advance()
		}
		return &svsyntax.Node{Kind: svsyntax.NodeWildcardPortConnection, Range: entity.SourceRange{Start: start, End: p.cur().Range.Start}}
	}
	if p.isPunct(".") {
		start := p.cur().Range.Start
		p.advance()
		nameTok := p.advance()
		var expr []*entity.Token
		if p.isPunct("(") {
			p.advance()
			for !p.isPunct(")") && !p.isEOF() {
				expr = append(expr, p.advance())
			}
			if p.isPunct(")") {
				p.advance()
			}
		}
		return &svsyntax.Node{
			Kind:   svsyntax.NodeNamedPortConnection,
			Name:   nameTok,
			Range:  entity.SourceRange{Start: start, End: p.cur().Range.Start},
			Tokens: expr,
		}
	}
	start := p.cur().Range.Start
	var expr []*entity.Token
	for !p.isPunct(",") && !p.isPunct(")") && !p.isEOF() {
		expr = append(expr, p.advance())
	}
	return &svsyntax.Node{Kind: svsyntax.NodeOrderedPortConnection, Range: entity.SourceRange{Start: start, End: p.cur().Range.Start}, Tokens: expr}
}

func (p *parser) parseOrderedOrNamedArg() *svsyntax.Node {
	if p.isPunct(".") {
		start := p.cur().Range.Start
		p.advance()
		nameTok := p.advance()
		var expr []*entity.Token
		if p.isPunct("(") {
			p.advance()
			for !p.isPunct(")") && !p.isEOF() {
				expr = append(expr, p.advance())
			}
			if p.isPunct(")") {
				p.advance()
			}
		}
		return &svsyntax.Node{Kind: svsyntax.NodeParameterValueAssignment, Name: nameTok, Range: entity.SourceRange{Start: start, End: p.cur().Range.Start}, Tokens: expr}
	}
	start := p.cur().Range.Start
	var expr []*entity.Token
	for !p.isPunct(",") && !p.isPunct(")") && !p.isEOF() {
		expr = append(expr, p.advance())
	}
	return &svsyntax.Node{Kind: svsyntax.NodeParameterValueAssignment, Range: entity.SourceRange{Start: start, End: p.cur().Range.Start}, Tokens: expr}
}

func (p *parser) parseParameterDeclarator() *svsyntax.Node {
	start := p.cur().Range.Start
	if isDataTypeStart(p.cur()) {
		p.advance()
	}
	nameTok := p.advance()
	if p.isPunct("=") {
		p.advance()
		for !p.isPunct(",") && !p.isPunct(")") && !p.isPunct(";") && !p.isEOF() {
			p.advance()
		}
	}
	return &svsyntax.Node{Kind: svsyntax.NodeParameterDeclaration, Name: nameTok, Range: entity.SourceRange{Start: start, End: p.cur().Range.Start}}
}

func (p *parser) parseParameterDeclaration() *svsyntax.Node {
	start := p.cur().Range.Start
	p.advance() // parameter/localparam
	var decls []*svsyntax.Node
	for {
		decls = append(decls, p.parseParameterDeclarator())
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if p.isPunct(";") {
		p.advance()
	}
	end := p.cur().Range.Start
	return &svsyntax.Node{Kind: svsyntax.NodeParameterDeclaration, Range: entity.SourceRange{Start: start, End: end}, Children: decls}
}

func (p *parser) parsePortDeclarator() *svsyntax.Node {
	return p.parsePortDeclaration()
}

func (p *parser) parsePortDeclaration() *svsyntax.Node {
	start := p.cur().Range.Start
	if p.cur().Kind == entity.TokenIdentifier && p.at(1).Raw == "." && p.at(2).Kind == entity.TokenIdentifier {
		ifaceTok := p.advance()
		dot := p.advance()
		modportTok := p.advance()
		// modport's own Tokens is left empty: modportTok is already
		// registered against clause (the DotMemberClause), and
		// resolveDotMemberClause expects ParentOf(modportTok) to be the
		// clause, not this wrapper node.
		modport := &svsyntax.Node{Kind: svsyntax.NodeIdentifierName, Name: modportTok}
		clause := &svsyntax.Node{
			Kind:   svsyntax.NodeDotMemberClause,
			Name:   ifaceTok,
			Tokens: []*entity.Token{ifaceTok, dot, modportTok},
			Range:  entity.SourceRange{Start: start, End: modportTok.Range.End},
			Extra:  map[string][]*svsyntax.Node{"modport": {modport}},
		}
		var nameTok *entity.Token
		if p.cur().Kind == entity.TokenIdentifier {
			nameTok = p.advance()
		}
		end := p.cur().Range.Start
		port := &svsyntax.Node{
			Kind:  svsyntax.NodePortDeclaration,
			Name:  nameTok,
			Range: entity.SourceRange{Start: start, End: end},
			Extra: map[string][]*svsyntax.Node{"interfacePort": {clause}},
		}
		clause.Parent = port
		modport.Parent = clause
		return port
	}
	if p.isKeyword("input") || p.isKeyword("output") || p.isKeyword("inout") {
		p.advance()
	}
	if isDataTypeStart(p.cur()) {
		p.advance()
	}
	for p.isPunct("[") {
		for !p.isPunct("]") && !p.isEOF() {
			p.advance()
		}
		if p.isPunct("]") {
			p.advance()
		}
	}
	var nameTok *entity.Token
	if p.cur().Kind == entity.TokenIdentifier {
		nameTok = p.advance()
	}
	end := p.cur().Range.Start
	return &svsyntax.Node{Kind: svsyntax.NodePortDeclaration, Name: nameTok, Range: entity.SourceRange{Start: start, End: end}}
}

func (p *parser) parseDataOrNetDeclaration() *svsyntax.Node {
	start := p.cur().Range.Start
	kind := svsyntax.NodeDataDeclaration
	if p.isKeyword("wire") {
		kind = svsyntax.NodeNetDeclaration
	}
	var typeTok *entity.Token
	if p.cur().Kind == entity.TokenIdentifier {
		// A user-defined type name (struct/enum/typedef/class), not one of
		// the fixed keyword types: record it so Compilation.ResolveTypes
		// can later bind each declarator's TypeOf.
		typeTok = p.advance()
	} else {
		p.advance() // the type keyword
	}
	for p.isPunct("[") {
		for !p.isPunct("]") && !p.isEOF() {
			p.advance()
		}
		if p.isPunct("]") {
			p.advance()
		}
	}
	var declarators []*svsyntax.Node
	for p.cur().Kind == entity.TokenIdentifier {
		nameTok := p.advance()
		declarators = append(declarators, &svsyntax.Node{Kind: svsyntax.NodeIdentifierName, Name: nameTok, Tokens: []*entity.Token{nameTok}})
		if p.isPunct("=") {
			p.advance()
			for !p.isPunct(",") && !p.isPunct(";") && !p.isEOF() {
				p.advance()
			}
		}
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if p.isPunct(";") {
		p.advance()
	}
	end := p.cur().Range.Start
	node := &svsyntax.Node{Kind: kind, Range: entity.SourceRange{Start: start, End: end}, Children: declarators}
	if typeTok != nil {
		node.Extra = map[string][]*svsyntax.Node{"typeName": {{Kind: svsyntax.NodeIdentifierName, Name: typeTok, Tokens: []*entity.Token{typeTok}}}}
	}
	return node
}

func (p *parser) parseTypedef() *svsyntax.Node {
	start := p.cur().Range.Start
	p.advance() // typedef
	kind := svsyntax.NodeTypedefDeclaration
	if p.isKeyword("enum") {
		kind = svsyntax.NodeEnumDeclaration
	} else if p.isKeyword("struct") {
		kind = svsyntax.NodeStructDeclaration
	}
	var members []*svsyntax.Node
	if p.isKeyword("enum") {
		p.advance()
		if p.isPunct("{") {
			p.advance()
			for !p.isPunct("}") && !p.isEOF() {
				if p.cur().Kind == entity.TokenIdentifier {
					memberTok := p.advance()
					members = append(members, &svsyntax.Node{Kind: svsyntax.NodeIdentifierName, Name: memberTok, Tokens: []*entity.Token{memberTok}})
					if p.isPunct("=") {
						p.advance()
						for !p.isPunct(",") && !p.isPunct("}") && !p.isEOF() {
							p.advance()
						}
					}
				} else {
					p.advance()
				}
				if p.isPunct(",") {
					p.advance()
				}
			}
			if p.isPunct("}") {
				p.advance()
			}
		}
	} else if p.isKeyword("struct") {
		p.advance()
		if p.isPunct("{") {
			p.advance()
			for !p.isPunct("}") && !p.isEOF() {
				before := p.pos
				if member := p.parseStructMember(); member != nil {
					members = append(members, member)
				}
				if p.pos == before {
					p.advance()
				}
			}
			if p.isPunct("}") {
				p.advance()
			}
		}
	}
	var aliasTypeTok *entity.Token
	if kind == svsyntax.NodeTypedefDeclaration && p.cur().Kind == entity.TokenIdentifier {
		// `typedef ExistingType NewName;`: the first identifier names the
		// type being aliased, not a struct/enum body.
		aliasTypeTok = p.advance()
	} else {
		for !p.isPunct(";") && !p.isEOF() && !(p.cur().Kind == entity.TokenIdentifier && p.at(1).Raw == ";") {
			p.advance()
		}
	}
	var nameTok *entity.Token
	if p.cur().Kind == entity.TokenIdentifier {
		nameTok = p.advance()
	}
	if p.isPunct(";") {
		p.advance()
	}
	end := p.cur().Range.Start
	node := &svsyntax.Node{Kind: kind, Name: nameTok, Range: entity.SourceRange{Start: start, End: end}, Children: members}
	if aliasTypeTok != nil {
		node.Extra = map[string][]*svsyntax.Node{"aliasType": {{Kind: svsyntax.NodeIdentifierName, Name: aliasTypeTok, Tokens: []*entity.Token{aliasTypeTok}}}}
	}
	return node
}

// parseStructMember parses one field of a struct declaration (`item_t a;`
// or `int b;`), capturing a user-defined type name via Extra["typeName"]
// the same way parseDataOrNetDeclaration does, so Compilation.ResolveTypes
// can bind the member's TypeOf.
func (p *parser) parseStructMember() *svsyntax.Node {
	start := p.cur().Range.Start
	var typeTok *entity.Token
	if p.cur().Kind == entity.TokenIdentifier {
		typeTok = p.advance()
	} else if isDataTypeStart(p.cur()) {
		p.advance()
	} else {
		return nil
	}
	for p.isPunct("[") {
		for !p.isPunct("]") && !p.isEOF() {
			p.advance()
		}
		if p.isPunct("]") {
			p.advance()
		}
	}
	if p.cur().Kind != entity.TokenIdentifier {
		return nil
	}
	nameTok := p.advance()
	if p.isPunct(",") || p.isPunct(";") {
		p.advance()
	}
	end := p.cur().Range.Start
	node := &svsyntax.Node{Kind: svsyntax.NodeIdentifierName, Name: nameTok, Tokens: []*entity.Token{nameTok}, Range: entity.SourceRange{Start: start, End: end}}
	if typeTok != nil {
		node.Extra = map[string][]*svsyntax.Node{"typeName": {{Kind: svsyntax.NodeIdentifierName, Name: typeTok, Tokens: []*entity.Token{typeTok}}}}
	}
	return node
}

func (p *parser) parseSubroutine(kind svsyntax.NodeKind, endKeyword string) *svsyntax.Node {
	start := p.cur().Range.Start
	p.advance()
	if isDataTypeStart(p.cur()) {
		p.advance()
	}
	var nameTok *entity.Token
	if p.cur().Kind == entity.TokenIdentifier {
		nameTok = p.advance()
	}
	var args []*svsyntax.Node
	if p.isPunct("(") {
		args = p.parseParenGroup(p.parsePortDeclarator)
	}
	if p.isPunct(";") {
		p.advance()
	}
	depth := 1
	for !p.isEOF() && depth > 0 {
		if p.isKeyword(endKeyword) {
			depth--
			if depth == 0 {
				break
			}
		}
		p.advance()
	}
	end := p.cur().Range.End
	if p.isKeyword(endKeyword) {
		p.advance()
	}
	return &svsyntax.Node{Kind: kind, Name: nameTok, Range: entity.SourceRange{Start: start, End: end}, Extra: map[string][]*svsyntax.Node{"arguments": args}}
}

func (p *parser) parseGenerateBlock() *svsyntax.Node {
	start := p.cur().Range.Start
	p.advance() // generate
	var body []*svsyntax.Node
	for !p.isEOF() && !p.isKeyword("endgenerate") {
		before := p.pos
		if item := p.parseBodyItem(); item != nil {
			body = append(body, item)
		}
		if p.pos == before {
			p.advance()
		}
	}
	end := p.cur().Range.End
	if p.isKeyword("endgenerate") {
		p.advance()
	}
	return &svsyntax.Node{Kind: svsyntax.NodeGenerateBlock, Range: entity.SourceRange{Start: start, End: end}, Children: body}
}

func (p *parser) parseGenerateFor() *svsyntax.Node {
	start := p.cur().Range.Start
	p.advance() // for
	var genvarTok *entity.Token
	if p.isPunct("(") {
		p.advance()
		if p.isKeyword("genvar") {
			p.advance()
		}
		if p.cur().Kind == entity.TokenIdentifier {
			genvarTok = p.advance()
		}
		for !p.isPunct(")") && !p.isEOF() {
			p.advance()
		}
		if p.isPunct(")") {
			p.advance()
		}
	}
	var label *entity.Token
	var body []*svsyntax.Node
	if p.isKeyword("begin") {
		p.advance()
		if p.isPunct(":") {
			p.advance()
			if p.cur().Kind == entity.TokenIdentifier {
				label = p.advance()
			}
		}
		for !p.isEOF() && !p.isKeyword("end") {
			before := p.pos
			if item := p.parseBodyItem(); item != nil {
				body = append(body, item)
			}
			if p.pos == before {
				p.advance()
			}
		}
		if p.isKeyword("end") {
			p.advance()
		}
	}
	end := p.cur().Range.Start
	extra := map[string][]*svsyntax.Node{}
	if genvarTok != nil {
		extra["genvar"] = []*svsyntax.Node{{Kind: svsyntax.NodeIdentifierName, Name: genvarTok, Tokens: []*entity.Token{genvarTok}}}
	}
	return &svsyntax.Node{Kind: svsyntax.NodeGenerateForLoop, Name: label, Range: entity.SourceRange{Start: start, End: end}, Children: body, Extra: extra}
}

func (p *parser) parseImportExport(kind svsyntax.NodeKind) *svsyntax.Node {
	start := p.cur().Range.Start
	p.advance() // import/export
	var nameTok *entity.Token
	if p.cur().Kind == entity.TokenIdentifier {
		nameTok = p.advance()
	}
	var memberTok *entity.Token
	if p.isPunct("::") {
		p.advance()
		if p.cur().Kind == entity.TokenIdentifier {
			memberTok = p.advance()
		} else if p.isPunct("*") {
			p.advance()
		}
	}
	if p.isPunct(";") {
		p.advance()
	}
	end := p.cur().Range.Start
	var toks []*entity.Token
	if nameTok != nil {
		toks = append(toks, nameTok)
	}
	if memberTok != nil {
		toks = append(toks, memberTok)
	}
	node := &svsyntax.Node{Kind: kind, Name: nameTok, Range: entity.SourceRange{Start: start, End: end}, Tokens: toks}
	return node
}

func (p *parser) parseMacroUsage() *svsyntax.Node {
	start := p.cur().Range.Start
	nameTok := p.advance()
	var args []*svsyntax.Node
	if p.isPunct("(") {
		args = p.parseParenGroup(func() *svsyntax.Node {
			argStart := p.cur().Range.Start
			var toks []*entity.Token
			depth := 0
			for !p.isEOF() {
				if p.isPunct("(") {
					depth++
				} else if p.isPunct(")") && depth == 0 {
					break
				} else if p.isPunct(")") {
					depth--
				} else if p.isPunct(",") && depth == 0 {
					break
				}
				toks = append(toks, p.advance())
			}
			return &svsyntax.Node{Kind: svsyntax.NodeIdentifierName, Range: entity.SourceRange{Start: argStart, End: p.cur().Range.Start}, Tokens: toks}
		})
	}
	if p.isPunct(";") {
		p.advance()
	}
	end := p.cur().Range.Start
	node := &svsyntax.Node{
		Kind:   svsyntax.NodeMacroUsage,
		Name:   nameTok,
		Range:  entity.SourceRange{Start: start, End: end},
		Tokens: []*entity.Token{nameTok},
		Extra:  map[string][]*svsyntax.Node{"arguments": args},
	}
	for _, arg := range args {
		arg.Parent = node
	}
	return node
}

// parseParenGroup consumes a balanced "(" ... ")" and applies elem to each
// comma-separated entry within it.
func (p *parser) parseParenGroup(elem func() *svsyntax.Node) []*svsyntax.Node {
	var out []*svsyntax.Node
	if !p.isPunct("(") {
		return out
	}
	p.advance()
	for !p.isPunct(")") && !p.isEOF() {
		out = append(out, elem())
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if p.isPunct(")") {
		p.advance()
	}
	return out
}

// skipStatement advances past tokens that don't match any recognized
// construct, stopping at the next top-level-significant boundary so a
// malformed or not-yet-modeled statement can't desynchronize the rest of
// the parse.
func (p *parser) skipStatement() *svsyntax.Node {
	depth := 0
	for !p.isEOF() {
		if p.isPunct("(") || p.isPunct("{") || p.isPunct("[") {
			depth++
		} else if p.isPunct(")") || p.isPunct("}") || p.isPunct("]") {
			if depth == 0 {
				break
			}
			depth--
		} else if p.isPunct(";") && depth == 0 {
			p.advance()
			break
		} else if depth == 0 && isEndKeyword(p.cur()) {
			break
		}
		p.advance()
	}
	return nil
}

func isEndKeyword(t *entity.Token) bool {
	if t.Kind != entity.TokenKeyword {
		return false
	}
	return strings.HasPrefix(t.Raw, "end")
}

func isDataTypeStart(t *entity.Token) bool {
	if t.Kind != entity.TokenKeyword {
		return false
	}
	switch t.Raw {
	case "logic", "wire", "reg", "bit", "int", "integer", "byte", "shortint", "longint", "real", "void":
		return true
	default:
		return false
	}
}
