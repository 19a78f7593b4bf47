// Package monthstep provides a linter that flags month and year arithmetic done with time.Time.AddDate.
//
// AddDate normalizes overflow, so stepping Jan 31 by one month lands on Mar 3
// (Mar 2 in leap years) instead of the last day of February. Recurrence code
// must step months with recurring.AddInterval, which clamps to the month's length.
//
// Example violations:
//
//	due.AddDate(0, 1, 0)                             // Bad: overflows on short months
//	due.AddDate(1, 0, 0)                             // Bad: Feb 29 becomes Mar 1
//	recurring.AddInterval(due, 1, domain.UnitMonths) // Good
//	due.AddDate(0, 0, 7)                             // Good: day steps never overflow
//
// The linter respects //nolint comments to suppress warnings when needed.
package monthstep

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports AddDate calls on time.Time whose year or month argument is not a literal zero.
var Analyzer = &analysis.Analyzer{
	Name: "monthstep",
	Doc:  "checks for time.Time.AddDate calls that step months or years and can overflow short months",
	Run:  run,
}

func run(pass *analysis.Pass) (any, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok || len(call.Args) != 3 {
				return true
			}

			if !isTimeAddDate(pass, call) {
				return true
			}

			if isZero(call.Args[0]) && isZero(call.Args[1]) {
				return true
			}

			if hasNolintComment(pass, file, call) {
				return true
			}

			pass.Reportf(call.Pos(), "AddDate with a month or year step overflows short months; use recurring.AddInterval")
			return true
		})
	}

	return nil, nil
}

// isTimeAddDate checks that call is x.AddDate(...) with x of type time.Time.
func isTimeAddDate(pass *analysis.Pass, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "AddDate" {
		return false
	}

	t := pass.TypesInfo.TypeOf(sel.X)
	if t == nil {
		return false
	}
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == "time" && obj.Name() == "Time"
}

func isZero(expr ast.Expr) bool {
	lit, ok := expr.(*ast.BasicLit)
	return ok && lit.Kind == token.INT && lit.Value == "0"
}

// hasNolintComment checks for //nolint or //nolint:monthstep on the call's line or the line before.
func hasNolintComment(pass *analysis.Pass, file *ast.File, call *ast.CallExpr) bool {
	line := pass.Fset.Position(call.Pos()).Line

	for _, cg := range file.Comments {
		for _, comment := range cg.List {
			commentLine := pass.Fset.Position(comment.Pos()).Line
			if commentLine != line && commentLine != line-1 {
				continue
			}
			text := comment.Text
			if !strings.Contains(text, "nolint") {
				continue
			}
			if !strings.Contains(text, ":") || strings.Contains(text, "monthstep") {
				return true
			}
		}
	}

	return false
}
