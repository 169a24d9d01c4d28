// Package builder synthesizes new element fragments from structured
// input. Indentation and block markers come from the target language's
// formatter family, so the output feeds straight into apply.
package builder

import (
	"strings"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/formatter"
	"github.com/termfx/codehem/providers"
)

// Param describes one parameter of a synthesized callable.
type Param struct {
	Name    string
	Type    string
	Default string
}

// FunctionSpec is the structured input for a new function or method.
type FunctionSpec struct {
	Name       string
	Params     []Param
	Returns    string
	Body       []string
	Decorators []string
}

// ClassSpec is the structured input for a new class.
type ClassSpec struct {
	Name       string
	Bases      []string
	Decorators []string
	Body       []string
}

// Function renders a free function fragment for the service's family.
func Function(svc providers.Service, spec FunctionSpec) (string, error) {
	if spec.Name == "" {
		return "", core.ValidationError("function name is required")
	}
	if svc.Family() == formatter.BraceFamily {
		return braceCallable(svc, spec, "function "+spec.Name, false), nil
	}
	return indentCallable(svc, spec, false), nil
}

// Method renders a method fragment suitable for appending inside a
// class. The receiver parameter is added for the indent family.
func Method(svc providers.Service, spec FunctionSpec) (string, error) {
	if spec.Name == "" {
		return "", core.ValidationError("method name is required")
	}
	if svc.Family() == formatter.BraceFamily {
		return braceCallable(svc, spec, spec.Name, true), nil
	}
	return indentCallable(svc, spec, true), nil
}

// Class renders a class fragment.
func Class(svc providers.Service, spec ClassSpec) (string, error) {
	if spec.Name == "" {
		return "", core.ValidationError("class name is required")
	}
	f := providers.FormatterFor(svc)
	unit := f.IndentUnit()

	var b strings.Builder
	for _, d := range spec.Decorators {
		b.WriteString(decoratorLine(d) + "\n")
	}

	if svc.Family() == formatter.BraceFamily {
		b.WriteString("class " + spec.Name)
		if len(spec.Bases) > 0 {
			b.WriteString(" extends " + strings.Join(spec.Bases, ", "))
		}
		b.WriteString(" {\n")
		for _, line := range bodyOrDefault(spec.Body, nil) {
			b.WriteString(unit + line + "\n")
		}
		b.WriteString("}")
		return b.String(), nil
	}

	b.WriteString("class " + spec.Name)
	if len(spec.Bases) > 0 {
		b.WriteString("(" + strings.Join(spec.Bases, ", ") + ")")
	}
	b.WriteString(":\n")
	for _, line := range bodyOrDefault(spec.Body, []string{"pass"}) {
		b.WriteString(unit + line + "\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func indentCallable(svc providers.Service, spec FunctionSpec, method bool) string {
	f := providers.FormatterFor(svc)
	unit := f.IndentUnit()

	params := make([]string, 0, len(spec.Params)+1)
	if method {
		params = append(params, "self")
	}
	for _, p := range spec.Params {
		s := p.Name
		if p.Type != "" {
			s += ": " + p.Type
		}
		if p.Default != "" {
			s += " = " + p.Default
		}
		params = append(params, s)
	}

	var b strings.Builder
	for _, d := range spec.Decorators {
		b.WriteString(decoratorLine(d) + "\n")
	}
	b.WriteString("def " + spec.Name + "(" + strings.Join(params, ", ") + ")")
	if spec.Returns != "" {
		b.WriteString(" -> " + spec.Returns)
	}
	b.WriteString(":\n")
	for _, line := range bodyOrDefault(spec.Body, []string{"pass"}) {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString(unit + line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func braceCallable(svc providers.Service, spec FunctionSpec, header string, method bool) string {
	f := providers.FormatterFor(svc)
	unit := f.IndentUnit()

	params := make([]string, 0, len(spec.Params))
	for _, p := range spec.Params {
		s := p.Name
		if p.Type != "" {
			s += ": " + p.Type
		}
		if p.Default != "" {
			s += " = " + p.Default
		}
		params = append(params, s)
	}

	var b strings.Builder
	for _, d := range spec.Decorators {
		b.WriteString(decoratorLine(d) + "\n")
	}
	b.WriteString(header + "(" + strings.Join(params, ", ") + ")")
	if spec.Returns != "" {
		b.WriteString(": " + spec.Returns)
	}
	b.WriteString(" {\n")
	for _, line := range bodyOrDefault(spec.Body, nil) {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString(unit + line + "\n")
	}
	b.WriteString("}")
	return b.String()
}

func decoratorLine(d string) string {
	if strings.HasPrefix(d, "@") {
		return d
	}
	return "@" + d
}

func bodyOrDefault(body, fallback []string) []string {
	if len(body) == 0 {
		return fallback
	}
	return body
}
