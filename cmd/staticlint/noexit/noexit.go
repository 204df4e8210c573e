// Package noexit содержит анализатор, который запрещает прямой вызов
// os.Exit в функции main пакета main: выход должен идти через logger.Fatal
// или возврат из main, иначе не отработают defer.
package noexit

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

// Analyzer запрещает использовать os.Exit в функции main.
var Analyzer = &analysis.Analyzer{
	Name: "noexit",
	Doc:  "запрещает использовать os.Exit в функции main пакета main",
	Run:  run,
}

// NewAnalyzer возвращает анализатор noexit.
func NewAnalyzer() *analysis.Analyzer {
	return Analyzer
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	for _, file := range pass.Files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Name.Name != "main" || fn.Recv != nil {
				continue
			}
			inspectMain(pass, fn)
		}
	}
	return nil, nil
}

func inspectMain(pass *analysis.Pass, fn *ast.FuncDecl) {
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}

		id, ok := sel.X.(*ast.Ident)
		if !ok || id.Name != "os" || sel.Sel.Name != "Exit" {
			return true
		}

		if obj, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func); ok && obj.FullName() == "os.Exit" {
			pass.Reportf(call.Pos(), "вызов os.Exit в функции main запрещён")
		}
		return true
	})
}
