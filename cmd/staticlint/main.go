// Package main запускает multichecker для проверки кода сервиса.
//
// Состав:
// - стандартные анализаторы go/analysis/passes
// - все SA-анализаторы staticcheck
// - S1000 (упрощения) и U1000 (неиспользуемый код)
// - публичный анализатор bodyclose
// - собственный анализатор noexit (запрещает os.Exit в main)
//
// Запуск:
//
//	go run ./cmd/staticlint ./...
package main

import (
	"strings"

	"github.com/timakin/bodyclose/passes/bodyclose"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/fieldalignment"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"honnef.co/go/tools/staticcheck"

	"github.com/Totarae/ShortLinks/cmd/staticlint/noexit"
)

func main() {
	analyzers := []*analysis.Analyzer{
		shadow.Analyzer,
		structtag.Analyzer,
		nilness.Analyzer,
		fieldalignment.Analyzer,
		printf.Analyzer,
	}

	// SA-анализаторы staticcheck
	for _, a := range staticcheck.Analyzers {
		if strings.HasPrefix(a.Analyzer.Name, "SA") {
			analyzers = append(analyzers, a.Analyzer)
		}
	}

	// не-SA: упрощения и неиспользуемый код
	for _, name := range []string{"S1000", "U1000"} {
		if a := findAnalyzer(name); a != nil {
			analyzers = append(analyzers, a)
		}
	}

	analyzers = append(analyzers, bodyclose.Analyzer, noexit.NewAnalyzer())

	multichecker.Main(analyzers...)
}

func findAnalyzer(name string) *analysis.Analyzer {
	for _, a := range staticcheck.Analyzers {
		if a.Analyzer.Name == name {
			return a.Analyzer
		}
	}
	return nil
}
