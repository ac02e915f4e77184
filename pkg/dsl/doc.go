/*
Package dsl provides a fluent Go API for writing pipeline blueprints in code
instead of YAML.

	bp, err := dsl.New("doubler").
		Config("_edge:capacity", "4").
		Process("src", processes.TypeNumbers).Set("end", "5").
		Pipeline().
		Process("print", processes.TypePrintNumber).
		Pipeline().
		Connect("src.number", "print.number").
		Build()

The result is an ordinary *blueprint.Blueprint: it can be marshalled, saved
to a store or handed to blueprint.Build.
*/
package dsl
