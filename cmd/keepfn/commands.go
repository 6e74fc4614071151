package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/CTAG07/keepfn/pkg/functions"
)

// list prints the registered functions. Terminals get a table, pipes get one
// name per line.
func (a *app) list() error {
	names := a.lib.Names()
	if !a.pretty {
		for _, name := range names {
			fmt.Fprintln(a.stdout, name)
		}
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tARGS\tKEYWORDS")
	for _, name := range names {
		def, _ := a.lib.Lookup(name)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", def.Name, def.Category, arity(def), strings.Join(def.Kwargs, ","))
	}
	return tw.Flush()
}

func arity(def *functions.Def) string {
	switch {
	case def.MaxArgs < 0:
		return fmt.Sprintf("%d+", def.MinArgs)
	case def.MinArgs == def.MaxArgs:
		return fmt.Sprint(def.MinArgs)
	}
	return fmt.Sprintf("%d-%d", def.MinArgs, def.MaxArgs)
}

// call invokes a single function and prints its result.
func (a *app) call(args []string) error {
	name, positional, kwargs, err := parseCallArgs(args)
	if err != nil {
		return err
	}
	v, err := a.lib.Call(name, positional, kwargs)
	if err != nil {
		return err
	}
	return a.writeValue(v)
}

// parseCallArgs splits "name arg... -kw key=value..." into a call. Arguments
// that parse as JSON are decoded, anything else is taken as a string.
func parseCallArgs(args []string) (string, []functions.Value, *functions.Map, error) {
	if len(args) == 0 {
		return "", nil, nil, errors.New("call: function name required")
	}
	name := args[0]
	var positional []functions.Value
	var kwargs *functions.Map

	for i := 1; i < len(args); i++ {
		arg := args[i]
		var pair string
		switch {
		case arg == "-kw" || arg == "--kw":
			if i+1 >= len(args) {
				return "", nil, nil, fmt.Errorf("call: %s needs key=value", arg)
			}
			i++
			pair = args[i]
		case strings.HasPrefix(arg, "-kw="), strings.HasPrefix(arg, "--kw="):
			pair = arg[strings.Index(arg, "=")+1:]
		default:
			positional = append(positional, decodeArg(arg))
			continue
		}

		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return "", nil, nil, fmt.Errorf("call: malformed keyword argument %q", pair)
		}
		if kwargs == nil {
			kwargs = functions.NewMap()
		}
		kwargs.Set(key, decodeArg(value))
	}
	return name, positional, kwargs, nil
}

func decodeArg(s string) functions.Value {
	if v, err := functions.DecodeJSON(s); err == nil {
		return v
	}
	return functions.String(s)
}

// render executes a named template or an inline template string.
func (a *app) render(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	contextPath := fs.String("context", "", "YAML or JSON file with template data (- for stdin)")
	inline := fs.String("string", "", "inline template to render instead of a named one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inline == "" && fs.NArg() != 1 {
		return errors.New("render: exactly one template name or -string required")
	}

	data, err := a.loadContext(*contextPath)
	if err != nil {
		return err
	}
	tm, err := a.newTemplateManager()
	if err != nil {
		return err
	}

	if *inline != "" {
		return tm.ExecuteString(a.stdout, *inline, data)
	}
	return tm.Execute(a.stdout, fs.Arg(0), data)
}

// watch reloads the template directory on change until ctx is done. With a
// template name it re-renders that template after every successful reload.
// The context file is read once, so "-" works for stdin.
func (a *app) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	contextPath := fs.String("context", "", "YAML or JSON file with template data (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	name := fs.Arg(0)

	data, err := a.loadContext(*contextPath)
	if err != nil {
		return err
	}
	tm, err := a.newTemplateManager()
	if err != nil {
		return err
	}

	renderOnce := func() {
		if name == "" {
			return
		}
		if err := tm.Execute(a.stdout, name, data); err != nil {
			a.logger.Error("Failed to render template", "template", name, "error", err)
			return
		}
		fmt.Fprintln(a.stdout)
	}
	renderOnce()

	return tm.Watch(ctx, func(err error) {
		if err != nil {
			return
		}
		a.logger.Info("Templates reloaded", "templates", len(tm.GetTemplateNames()))
		renderOnce()
	})
}

// loadContext reads template data from a file. JSON files keep JSON number
// semantics, everything else is decoded as YAML.
func (a *app) loadContext(path string) (functions.Value, error) {
	if path == "" {
		return functions.Null, nil
	}

	var r io.Reader = a.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return functions.Null, fmt.Errorf("failed to open context file: %w", err)
		}
		defer f.Close()
		r = f
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := io.ReadAll(r)
		if err != nil {
			return functions.Null, fmt.Errorf("failed to read context file: %w", err)
		}
		v, err := functions.DecodeJSON(string(data))
		if err != nil {
			return functions.Null, fmt.Errorf("failed to parse context file: %w", err)
		}
		return v, nil
	}

	v, err := functions.DecodeYAML(r)
	if err != nil {
		return functions.Null, fmt.Errorf("failed to parse context file: %w", err)
	}
	return v, nil
}

// writeValue prints a call result. Strings print raw; other values print as
// JSON, indented on a terminal.
func (a *app) writeValue(v functions.Value) error {
	var out []byte
	switch v.Kind() {
	case functions.KindString, functions.KindNull, functions.KindTime:
		out = []byte(v.String())
	default:
		indent := ""
		if a.pretty {
			indent = "  "
		}
		var err error
		if out, err = functions.EncodeJSON(v, indent); err != nil {
			return err
		}
	}
	out = append(out, '\n')
	_, err := a.stdout.Write(out)
	return err
}
