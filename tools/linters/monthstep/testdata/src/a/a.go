package a

import "time"

var due = time.Date(2025, time.January, 31, 9, 0, 0, 0, time.UTC)

func monthly() {
	_ = due.AddDate(0, 1, 0) // want "AddDate with a month or year step overflows short months; use recurring.AddInterval"
}

func yearly() {
	_ = due.AddDate(1, 0, 0) // want "AddDate with a month or year step overflows short months; use recurring.AddInterval"
}

func variableMonths(n int) {
	_ = due.AddDate(0, n, 0) // want "AddDate with a month or year step overflows short months; use recurring.AddInterval"
}

func viaPointer(t *time.Time) {
	_ = t.AddDate(0, 3, 0) // want "AddDate with a month or year step overflows short months; use recurring.AddInterval"
}

func days() {
	_ = due.AddDate(0, 0, 7)
}

func variableDays(n int) {
	_ = due.AddDate(0, 0, n)
}

type calendar struct{}

func (calendar) AddDate(years, months, days int) calendar { return calendar{} }

func otherType() {
	_ = calendar{}.AddDate(0, 1, 0)
}

func nolintGeneral() {
	//nolint
	_ = due.AddDate(0, 1, 0)
}

func nolintSpecific() {
	_ = due.AddDate(0, 1, 0) //nolint:monthstep
}

func nolintOtherLinter() {
	_ = due.AddDate(0, 1, 0) //nolint:otherlinter // want "AddDate with a month or year step overflows short months; use recurring.AddInterval"
}
