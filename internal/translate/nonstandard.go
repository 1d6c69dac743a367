package translate

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	tidb "github.com/pingcap/tidb/pkg/parser/ast"

	eng "github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
)

// translateNonStandard recognizes the handful of statement forms spec.md
// §6.3/§6.5 names that have no production in TiDB's MySQL-derived grammar
// (CREATE/DROP FUNCTION's expression body, the dotted DROP INDEX
// table.index form, SHOW VERSION, SHOW FUNCTIONS).
// It reports ok=false when sql isn't one of these, letting the caller fall
// through to the regular TiDB parse.
func translateNonStandard(sql string) (stmt eng.Statement, ok bool, err error) {
	upper := strings.ToUpper(sql)
	switch {
	case strings.HasPrefix(upper, "CREATE FUNCTION"):
		stmt, err := translateCreateFunction(sql)
		return stmt, true, err
	case strings.HasPrefix(upper, "DROP FUNCTION"):
		stmt, err := translateDropFunction(sql)
		return stmt, true, err
	case strings.HasPrefix(upper, "DROP INDEX") && !strings.Contains(upper, " ON "):
		target := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sql[len("DROP INDEX"):]), ";"))
		table, index, found := strings.Cut(target, ".")
		if !found || table == "" || index == "" {
			return nil, true, errs.Translate("DROP INDEX requires table.index or index ON table")
		}
		return &eng.DropIndex{Table: table, Name: index}, true, nil
	case upper == "SHOW VERSION" || upper == "SHOW VERSION;":
		return &eng.ShowVariable{Name: "version"}, true, nil
	case upper == "SHOW FUNCTIONS" || upper == "SHOW FUNCTIONS;":
		return &eng.ShowVariable{Name: "functions"}, true, nil
	default:
		return nil, false, nil
	}
}

// translateCreateFunction parses "CREATE FUNCTION name(p1, p2 = default, ...)
// AS expr". The parameter list and body are hand-scanned since TiDB's
// grammar has no production for a function whose body is a bare scalar
// expression (MySQL stored functions require a procedural BEGIN...END
// body); the body expression text itself is still handed to the TiDB parser
// by wrapping it as "SELECT <expr>", reusing the same expression translator
// every other statement kind goes through.
func translateCreateFunction(sql string) (*eng.CreateFunction, error) {
	rest := strings.TrimSpace(sql[len("CREATE FUNCTION"):])
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return nil, errs.Translate("CREATE FUNCTION requires a parameter list")
	}
	name := strings.TrimSpace(rest[:open])
	rest = rest[open+1:]
	closeAt := strings.IndexByte(rest, ')')
	if closeAt < 0 {
		return nil, errs.Translate("CREATE FUNCTION parameter list is not closed")
	}
	paramsText := rest[:closeAt]
	rest = strings.TrimSpace(rest[closeAt+1:])
	upperRest := strings.ToUpper(rest)
	asIdx := strings.Index(upperRest, "AS")
	if asIdx < 0 {
		return nil, errs.Translate("CREATE FUNCTION requires an AS <expr> body")
	}
	bodyText := strings.TrimSpace(rest[asIdx+2:])
	bodyText = strings.TrimSuffix(strings.TrimSpace(bodyText), ";")

	fn := &eng.CreateFunction{Name: name}
	for _, p := range splitTopLevel(paramsText, ',') {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if eq := strings.IndexByte(p, '='); eq >= 0 {
			pname := strings.TrimSpace(p[:eq])
			defText := strings.TrimSpace(p[eq+1:])
			defExpr, err := parseExprText(defText)
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, eng.FunctionParam{Name: pname, Default: &defExpr})
		} else {
			fn.Params = append(fn.Params, eng.FunctionParam{Name: p})
		}
	}

	body, err := parseExprText(bodyText)
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

func translateDropFunction(sql string) (*eng.DropFunction, error) {
	rest := strings.TrimSpace(sql[len("DROP FUNCTION"):])
	rest = strings.TrimSuffix(rest, ";")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil, errs.Translate("DROP FUNCTION requires a function name")
	}
	return &eng.DropFunction{Name: rest}, nil
}

// parseExprText parses a bare scalar expression by wrapping it in a
// single-column SELECT and pulling the projected expression back out,
// reusing the TiDB parser's expression grammar without needing a dedicated
// expression-only entry point.
func parseExprText(text string) (eng.Expr, error) {
	p := parser.New()
	nodes, _, err := p.Parse("SELECT "+text, "", "")
	if err != nil {
		return nil, errs.Parse(err, text)
	}
	if len(nodes) != 1 {
		return nil, errs.Translate("expected exactly one expression")
	}
	sel, ok := nodes[0].(*tidb.SelectStmt)
	if !ok || sel.Fields == nil || len(sel.Fields.Fields) != 1 {
		return nil, errs.Translate("malformed expression %q", text)
	}
	return translateExpr(sel.Fields.Fields[0].Expr)
}

func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
