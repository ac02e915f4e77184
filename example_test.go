package flume_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aretw0/flume"
	"github.com/aretw0/flume/pkg/blueprint"
)

const doubler = `
name: doubler
processes:
  - {name: src, type: numbers, config: {start: "1", end: "5"}}
  - {name: print, type: print_number}
  - {name: times2, type: multiplier_cluster, config: {factor: "2"}}
connections:
  - {from: src.number, to: times2.factor}
  - {from: times2.product, to: print.number}
`

// ExampleEngine_Run builds a pipeline from a YAML blueprint and runs it to
// completion.
func ExampleEngine_Run() {
	dir, err := os.MkdirTemp("", "flume-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "out.txt")

	bp, err := blueprint.Parse([]byte(doubler))
	if err != nil {
		log.Fatal(err)
	}
	bp.Processes[1].Config = map[string]string{"output": out}

	eng, err := flume.New()
	if err != nil {
		log.Fatal(err)
	}
	p, err := eng.Setup(bp)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := eng.Run(context.Background(), p); err != nil {
		log.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(string(data))
	// Output:
	// 2
	// 4
	// 6
	// 8
}
