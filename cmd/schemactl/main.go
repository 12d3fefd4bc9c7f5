// Command schemactl prints the stored feature schema of a served model and reports how
// the inference flow's columns line up with it.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gyaneshwarpardhi/bankpredict/internal/artifact"
	"github.com/gyaneshwarpardhi/bankpredict/internal/model"
)

func main() {
	dir := flag.String("artifacts", "artifacts", "Artifacts root directory")
	name := flag.String("model", artifact.ModelChurn, "Model to inspect (churn|loan)")
	coverage := flag.Bool("coverage", true, "Report always-padded and always-dropped columns")
	flag.Parse()

	if err := run(os.Stdout, *dir, *name, *coverage); err != nil {
		fmt.Fprintln(os.Stderr, "schemactl:", err)
		os.Exit(1)
	}
}

func run(w io.Writer, dir, name string, coverage bool) error {
	set, err := artifact.Load(dir, model.DefaultRegistry())
	if err != nil {
		return err
	}
	schema, ok := set.Schema(name)
	if !ok {
		return fmt.Errorf("unknown model %q", name)
	}

	fmt.Fprintf(w, "%s model features (%d, artifacts %s):\n", name, len(schema), set.Version)
	for i, col := range schema {
		fmt.Fprintf(w, "%d. %s\n", i+1, col)
	}
	if !coverage {
		return nil
	}

	report, _ := set.Coverage(name)
	fmt.Fprintln(w)
	printList(w, "always padded (never produced at inference)", report.Padded)
	printList(w, "always dropped (not in schema)", report.Dropped)
	return nil
}

func printList(w io.Writer, title string, cols []string) {
	if len(cols) == 0 {
		fmt.Fprintf(w, "%s: none\n", title)
		return
	}
	fmt.Fprintf(w, "%s: %d\n", title, len(cols))
	for _, col := range cols {
		fmt.Fprintf(w, "  - %s\n", col)
	}
}
