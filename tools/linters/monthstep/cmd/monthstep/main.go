package main

import (
	"github.com/rezkam/recur/tools/linters/monthstep"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(monthstep.Analyzer)
}
