// Package docgen renders a Markdown reference of the registered Step
// classes and their artifacts from the static declarations alone: no
// Configuration is needed, since descriptors expose their key path,
// validator description, and metadata directly.
package docgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/step"
)

// Steps renders the Markdown reference for a list of Step classes, in the
// given order.
func Steps(classes []step.Class) string {
	var b strings.Builder
	b.WriteString("# Steps\n")

	for _, class := range classes {
		fmt.Fprintf(&b, "\n## %s\n", class.Name())

		params := class.Parameters()
		if len(params) > 0 {
			names := make([]string, 0, len(params))
			for name := range params {
				names = append(names, name)
			}
			sort.Strings(names)

			b.WriteString("\n### Parameters\n\n")
			for _, name := range names {
				binder := params[name]
				fmt.Fprintf(&b, "- `%s` (%s)", binder.KeyPath(), binder.Validator().Describe())
				if binder.Description() != "" {
					fmt.Fprintf(&b, ": %s", binder.Description())
				}
				b.WriteString("\n")
				if binder.Note() != "" {
					fmt.Fprintf(&b, "  - Note: %s\n", binder.Note())
				}
				if binder.Example() != "" {
					fmt.Fprintf(&b, "  - Example: `%s`\n", binder.Example())
				}
			}
		}

		writeFiles(&b, "Inputs", inputClasses(class))
		writeFiles(&b, "Outputs", outputClasses(class))
	}
	return b.String()
}

// Artifacts renders the Markdown reference of every distinct artifact
// class referenced by the given Step classes, with column schemas.
func Artifacts(classes []step.Class) string {
	byName := make(map[string]artifact.Class)
	for _, class := range classes {
		for _, c := range inputClasses(class) {
			byName[c.Name] = c
		}
		for _, c := range outputClasses(class) {
			byName[c.Name] = c
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("# Artifacts\n")
	for _, name := range names {
		class := byName[name]
		fmt.Fprintf(&b, "\n## %s\n\n", class.Name)
		fmt.Fprintf(&b, "- Path: `%s`\n", class.RelPath)
		fmt.Fprintf(&b, "- Kind: %s\n", class.Kind)
		if len(class.Schema) > 0 {
			b.WriteString("\n| Column | Type | Optional | Nullable | Unique | Description |\n")
			b.WriteString("|---|---|---|---|---|---|\n")
			for _, col := range class.Schema {
				fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
					col.Name, col.Type, mark(col.Optional), mark(col.Nullable), mark(col.Unique), col.Description)
			}
		}
	}
	return b.String()
}

func writeFiles(b *strings.Builder, title string, classes []artifact.Class) {
	if len(classes) == 0 {
		return
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	fmt.Fprintf(b, "\n### %s\n\n", title)
	for _, c := range classes {
		fmt.Fprintf(b, "- %s (`%s`, %s)\n", c.Name, c.RelPath, c.Kind)
	}
}

func inputClasses(class step.Class) []artifact.Class {
	var out []artifact.Class
	for _, spec := range class.InputFiles() {
		out = append(out, spec.Class)
	}
	return out
}

func outputClasses(class step.Class) []artifact.Class {
	var out []artifact.Class
	for _, c := range class.OutputFiles() {
		out = append(out, c)
	}
	return out
}

func mark(v bool) string {
	if v {
		return "yes"
	}
	return ""
}
