// Package parser builds a Document AST from source text. The parser is a
// single-shot recursive descent over the lexer's token stream; it never
// recovers from an error.
package parser

import (
	"strconv"
	"strings"

	"github.com/docql/docql/internal/ast"
	"github.com/docql/docql/internal/lexer"
)

// Parser parses document source into an ast.Document.
type Parser struct {
	lex *lexer.Lexer
}

// Parse tokenizes and parses a complete document.
func Parse(input string) (*ast.Document, error) {
	lex := lexer.New(input)
	if err := lex.Lex(); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	p := &Parser{lex: lex}
	return p.parseDocument()
}

func (p *Parser) parseDocument() (*ast.Document, error) {
	doc := &ast.Document{}
	seen := map[string]bool{}

	for {
		tok := p.lex.PeekToken()
		if tok.Type == lexer.TokenEOF {
			break
		}
		op, err := p.parseOperation()
		if err != nil {
			return nil, err
		}
		if seen[op.Name] {
			return nil, errorAt(tok.Line, tok.Col, "duplicate operation name %q", op.Name)
		}
		seen[op.Name] = true
		doc.Operations = append(doc.Operations, op)
	}

	if len(doc.Operations) == 0 {
		return nil, &ParseError{Message: "document contains no operations"}
	}

	// Calls naming an operation in this document are query calls; the
	// distinction cannot be drawn mid-parse because the target operation may
	// be declared later in the document.
	classifyCalls(doc)
	return doc, nil
}

func (p *Parser) parseOperation() (*ast.Operation, error) {
	tok := p.lex.NextToken()
	if tok.Type != lexer.TokenIdent {
		return nil, errorAt(tok.Line, tok.Col, "expected 'query' or 'mutation', got %s", tok)
	}

	var kind ast.OpKind
	switch tok.Value {
	case "query":
		kind = ast.OpQuery
	case "mutation":
		kind = ast.OpMutation
	default:
		return nil, errorAt(tok.Line, tok.Col, "expected 'query' or 'mutation', got %q", tok.Value)
	}

	nameTok := p.lex.NextToken()
	if nameTok.Type != lexer.TokenIdent {
		return nil, errorAt(nameTok.Line, nameTok.Col, "expected operation name, got %s", nameTok)
	}

	op := &ast.Operation{Kind: kind, Name: nameTok.Value}

	if p.lex.PeekToken().Type == lexer.TokenLeftParen {
		vars, err := p.parseVariableDecls()
		if err != nil {
			return nil, err
		}
		op.Vars = vars
	}

	if tok := p.lex.NextToken(); tok.Type != lexer.TokenLeftBrace {
		return nil, errorAt(tok.Line, tok.Col, "expected '{' to open %s %s, got %s", kind, op.Name, tok)
	}

	for {
		tok := p.lex.PeekToken()
		if tok.Type == lexer.TokenRightBrace {
			p.lex.NextToken()
			break
		}
		if tok.Type == lexer.TokenEOF {
			return nil, errorAt(tok.Line, tok.Col, "unexpected end of input in %s %s: missing '}'", kind, op.Name)
		}
		table, err := p.parseTable()
		if err != nil {
			return nil, err
		}
		op.Tables = append(op.Tables, table)
	}

	return op, nil
}

// parseVariableDecls parses "(" [$name !?] ("," $name !?)* ")".
func (p *Parser) parseVariableDecls() ([]ast.VariableDecl, error) {
	p.lex.NextToken() // consume '('

	var decls []ast.VariableDecl
	for {
		tok := p.lex.PeekToken()
		if tok.Type == lexer.TokenRightParen {
			p.lex.NextToken()
			return decls, nil
		}
		if tok.Type == lexer.TokenComma {
			p.lex.NextToken()
			continue
		}
		if tok.Type != lexer.TokenVariable {
			return nil, errorAt(tok.Line, tok.Col, "expected variable declaration, got %s", tok)
		}
		p.lex.NextToken()
		decl := ast.VariableDecl{Name: tok.Value}
		if p.lex.PeekToken().Type == lexer.TokenBang {
			p.lex.NextToken()
			decl.Required = true
		}
		decls = append(decls, decl)
	}
}

// parseTable parses "-"? name [params] [block]. A delete table may omit the
// braced block entirely.
func (p *Parser) parseTable() (*ast.Table, error) {
	table := &ast.Table{}

	if p.lex.PeekToken().Type == lexer.TokenMinus {
		p.lex.NextToken()
		table.Delete = true
	}

	nameTok := p.lex.NextToken()
	if nameTok.Type != lexer.TokenIdent {
		return nil, errorAt(nameTok.Line, nameTok.Col, "expected table name, got %s", nameTok)
	}
	table.Name = nameTok.Value

	if p.lex.PeekToken().Type == lexer.TokenLeftParen {
		params, err := p.parseSelectors()
		if err != nil {
			return nil, err
		}
		table.Params = params
	}

	if p.lex.PeekToken().Type == lexer.TokenLeftBrace {
		p.lex.NextToken()
		if err := p.parseChildren(table); err != nil {
			return nil, err
		}
	}

	return table, nil
}

// parseSelectors parses "(" [selector ("," selector)*] ")".
func (p *Parser) parseSelectors() ([]ast.Selector, error) {
	p.lex.NextToken() // consume '('

	var selectors []ast.Selector
	for {
		tok := p.lex.PeekToken()
		if tok.Type == lexer.TokenRightParen {
			p.lex.NextToken()
			return selectors, nil
		}
		if tok.Type == lexer.TokenComma {
			p.lex.NextToken()
			continue
		}
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
	}
}

func (p *Parser) parseSelector() (ast.Selector, error) {
	lhsTok := p.lex.NextToken()
	if lhsTok.Type != lexer.TokenIdent {
		return ast.Selector{}, errorAt(lhsTok.Line, lhsTok.Col, "expected selector column, got %s", lhsTok)
	}

	opTok := p.lex.NextToken()
	var op string
	switch opTok.Type {
	case lexer.TokenEquals:
		op = "="
	case lexer.TokenNotEquals:
		op = "!="
	case lexer.TokenLess:
		op = "<"
	case lexer.TokenGreater:
		op = ">"
	case lexer.TokenLessEquals:
		op = "<="
	case lexer.TokenGreaterEquals:
		op = ">="
	case lexer.TokenIdent:
		if opTok.Value != "in" {
			return ast.Selector{}, errorAt(opTok.Line, opTok.Col, "expected selector operator, got %q", opTok.Value)
		}
		op = "in"
	default:
		return ast.Selector{}, errorAt(opTok.Line, opTok.Col, "expected selector operator, got %s", opTok)
	}

	rhs, err := p.parseExpr()
	if err != nil {
		return ast.Selector{}, err
	}

	if op == "in" {
		switch rhs.(type) {
		case *ast.List, *ast.FuncCall, *ast.QueryCall:
		default:
			return ast.Selector{}, errorAt(opTok.Line, opTok.Col, "'in' requires a list or query call on the right-hand side")
		}
	}

	return ast.Selector{LHS: lhsTok.Value, Op: op, RHS: rhs}, nil
}

// parseChildren parses a table block's children up to the closing brace.
func (p *Parser) parseChildren(table *ast.Table) error {
	for {
		tok := p.lex.PeekToken()
		switch tok.Type {
		case lexer.TokenRightBrace:
			p.lex.NextToken()
			return nil
		case lexer.TokenEOF:
			return errorAt(tok.Line, tok.Col, "unexpected end of input in table %s: missing '}'", table.Name)
		case lexer.TokenSpread:
			join, err := p.parseJoin()
			if err != nil {
				return err
			}
			table.Children = append(table.Children, join)
		case lexer.TokenIdent:
			field, err := p.parseField()
			if err != nil {
				return err
			}
			table.Children = append(table.Children, field)
		default:
			return errorAt(tok.Line, tok.Col, "unexpected %s in table %s", tok, table.Name)
		}
	}
}

// parseJoin parses "..." "on" table.
func (p *Parser) parseJoin() (*ast.Join, error) {
	p.lex.NextToken() // consume '...'
	onTok := p.lex.NextToken()
	if onTok.Type != lexer.TokenIdent || onTok.Value != "on" {
		return nil, errorAt(onTok.Line, onTok.Col, "expected 'on' after '...', got %s", onTok)
	}
	table, err := p.parseTable()
	if err != nil {
		return nil, err
	}
	return &ast.Join{Table: table}, nil
}

// parseField parses either a query field "name[alias]?" or a mutation
// assignment "name: expr". Shape checks happen at lowering, not here.
func (p *Parser) parseField() (*ast.Field, error) {
	nameTok := p.lex.NextToken()
	field := &ast.Field{Name: nameTok.Value}

	switch p.lex.PeekToken().Type {
	case lexer.TokenLeftBracket:
		p.lex.NextToken()
		aliasTok := p.lex.NextToken()
		if aliasTok.Type != lexer.TokenIdent {
			return nil, errorAt(aliasTok.Line, aliasTok.Col, "expected alias name, got %s", aliasTok)
		}
		field.Alias = aliasTok.Value
		if tok := p.lex.NextToken(); tok.Type != lexer.TokenRightBracket {
			return nil, errorAt(tok.Line, tok.Col, "expected ']' after alias, got %s", tok)
		}
	case lexer.TokenColon:
		p.lex.NextToken()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		field.Value = value
	}

	return field, nil
}

// parseExpr parses a term followed by optional binary '-' chains, which
// exist for raw SQL arithmetic like CURRENT_TIMESTAMP - INTERVAL '1 week'.
func (p *Parser) parseExpr() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for p.lex.PeekToken().Type == lexer.TokenMinus {
		p.lex.NextToken()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: "-", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	tok := p.lex.PeekToken()

	switch tok.Type {
	case lexer.TokenString:
		p.lex.NextToken()
		return &ast.Literal{Value: ast.String(tok.Value)}, nil

	case lexer.TokenInt:
		p.lex.NextToken()
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, errorAt(tok.Line, tok.Col, "invalid integer %q", tok.Value)
		}
		return &ast.Literal{Value: ast.Int(n)}, nil

	case lexer.TokenFloat:
		p.lex.NextToken()
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, errorAt(tok.Line, tok.Col, "invalid number %q", tok.Value)
		}
		return &ast.Literal{Value: ast.Float(f)}, nil

	case lexer.TokenVariable:
		p.lex.NextToken()
		return &ast.Variable{Name: tok.Value}, nil

	case lexer.TokenLeftBracket:
		return p.parseList()

	case lexer.TokenIdent:
		return p.parseIdentExpr()

	default:
		return nil, errorAt(tok.Line, tok.Col, "unexpected %s in expression", tok)
	}
}

func (p *Parser) parseList() (ast.Expr, error) {
	p.lex.NextToken() // consume '['

	list := &ast.List{}
	for {
		tok := p.lex.PeekToken()
		if tok.Type == lexer.TokenRightBracket {
			p.lex.NextToken()
			return list, nil
		}
		if tok.Type == lexer.TokenComma {
			p.lex.NextToken()
			continue
		}
		if tok.Type == lexer.TokenEOF {
			return nil, errorAt(tok.Line, tok.Col, "unexpected end of input in list: missing ']'")
		}
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
	}
}

// parseIdentExpr handles identifiers at expression position: keywords
// (true/false/null), calls, raw SQL passthrough, and column references.
func (p *Parser) parseIdentExpr() (ast.Expr, error) {
	tok := p.lex.NextToken()

	switch tok.Value {
	case "true":
		return &ast.Literal{Value: ast.Bool(true)}, nil
	case "false":
		return &ast.Literal{Value: ast.Bool(false)}, nil
	case "null", "NULL":
		return &ast.Literal{Value: ast.Null{}}, nil
	}

	if p.lex.PeekToken().Type == lexer.TokenLeftParen {
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		return &ast.FuncCall{Name: tok.Value, Args: args}, nil
	}

	if isAllUpper(tok.Value) {
		// Raw SQL passthrough. INTERVAL-style tokens carry a trailing
		// single-quoted string which stays part of the raw text.
		next := p.lex.PeekToken()
		if next.Type == lexer.TokenString && next.Single {
			p.lex.NextToken()
			return &ast.RawText{Text: tok.Value + " '" + next.Value + "'"}, nil
		}
		return &ast.RawText{Text: tok.Value}, nil
	}

	return &ast.ColumnRef{Path: tok.Value}, nil
}

func (p *Parser) parseCallArgs() ([]ast.Expr, error) {
	p.lex.NextToken() // consume '('

	var args []ast.Expr
	for {
		tok := p.lex.PeekToken()
		if tok.Type == lexer.TokenRightParen {
			p.lex.NextToken()
			return args, nil
		}
		if tok.Type == lexer.TokenComma {
			p.lex.NextToken()
			continue
		}
		if tok.Type == lexer.TokenEOF {
			return nil, errorAt(tok.Line, tok.Col, "unexpected end of input in call arguments: missing ')'")
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
}

// isAllUpper reports whether s has at least one letter and no lowercase
// letters, ignoring digits and underscores. Dotted paths never qualify.
func isAllUpper(s string) bool {
	if strings.Contains(s, ".") {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

// classifyCalls rewrites FuncCall expressions whose name matches a document
// operation into QueryCall. Runs once, before the Document is returned.
func classifyCalls(doc *ast.Document) {
	for _, op := range doc.Operations {
		for _, table := range op.Tables {
			classifyTable(doc, table)
		}
	}
}

func classifyTable(doc *ast.Document, table *ast.Table) {
	for i := range table.Params {
		table.Params[i].RHS = classifyExpr(doc, table.Params[i].RHS)
	}
	for _, child := range table.Children {
		switch c := child.(type) {
		case *ast.Field:
			if c.Value != nil {
				c.Value = classifyExpr(doc, c.Value)
			}
		case *ast.Join:
			classifyTable(doc, c.Table)
		}
	}
}

func classifyExpr(doc *ast.Document, e ast.Expr) ast.Expr {
	switch expr := e.(type) {
	case *ast.FuncCall:
		for i := range expr.Args {
			expr.Args[i] = classifyExpr(doc, expr.Args[i])
		}
		if _, ok := doc.Lookup(expr.Name); ok {
			return &ast.QueryCall{Name: expr.Name, Args: expr.Args}
		}
		return expr
	case *ast.List:
		for i := range expr.Items {
			expr.Items[i] = classifyExpr(doc, expr.Items[i])
		}
		return expr
	case *ast.BinaryExpr:
		expr.Left = classifyExpr(doc, expr.Left)
		expr.Right = classifyExpr(doc, expr.Right)
		return expr
	default:
		return e
	}
}
