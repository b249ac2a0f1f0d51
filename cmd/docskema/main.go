package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	j "github.com/goccy/go-json"

	"github.com/reoring/docskema"
	"github.com/reoring/docskema/yamldef"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "compile":
		return compileCmd(args[1:], stdout, stderr)
	case "construct":
		return constructCmd(args[1:], stdin, stdout, stderr)
	case "jsonschema":
		return jsonschemaCmd(args[1:], stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "docskema CLI\n\nUsage:\n  docskema compile -f def.yaml [-format text|json|dump] [-pojo-to-mixed=false] [-watch]\n  docskema construct -f def.yaml -in doc.json\n  docskema jsonschema -f def.yaml")
}

// commonFlags are shared by every subcommand that compiles a definition.
type commonFlags struct {
	file        string
	pojoToMixed bool
	strict      string
	verbose     bool
	fs          *flag.FlagSet
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	c := &commonFlags{fs: fs}
	fs.StringVar(&c.file, "f", "", "definition file (YAML or JSON)")
	fs.BoolVar(&c.pojoToMixed, "pojo-to-mixed", true, "compile plain objects under the type key as Mixed")
	fs.StringVar(&c.strict, "strict", "", "unknown key policy: strip, throw or passthrough")
	fs.BoolVar(&c.verbose, "v", false, "enable debug logs")
	return fs, c
}

func (c *commonFlags) logger(stderr io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	if c.verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}))
}

// options returns the compile options for flags given explicitly, so file
// options stay in effect otherwise.
func (c *commonFlags) options(log *slog.Logger) ([]docskema.Option, error) {
	opts := []docskema.Option{docskema.WithLogger(log)}
	var err error
	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pojo-to-mixed":
			opts = append(opts, docskema.WithTypePojoToMixed(c.pojoToMixed))
		case "strict":
			p, perr := docskema.ParseUnknownPolicy(c.strict)
			if perr != nil {
				err = perr
				return
			}
			opts = append(opts, docskema.WithStrict(p))
		}
	})
	return opts, err
}

func (c *commonFlags) load(stderr io.Writer) (*docskema.Schema, *slog.Logger, []docskema.Option, bool) {
	log := c.logger(stderr)
	if c.file == "" {
		c.fs.Usage()
		return nil, log, nil, false
	}
	opts, err := c.options(log)
	if err != nil {
		log.Error("invalid flags", "error", err)
		return nil, log, nil, false
	}
	s, err := yamldef.LoadFile(c.file, opts...)
	if err != nil {
		log.Error("compile failed", "file", c.file, "error", err)
		return nil, log, nil, false
	}
	log.Debug("compiled", "file", c.file, "paths", len(s.Paths()))
	return s, log, opts, true
}

// pathInfo is the printable summary of one compiled path.
type pathInfo struct {
	Path     string         `json:"path"`
	Instance string         `json:"instance"`
	Element  string         `json:"element,omitempty"`
	Required bool           `json:"required,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type schemaInfo struct {
	Paths    []pathInfo `json:"paths"`
	Nested   []string   `json:"nested,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
}

func describe(s *docskema.Schema) schemaInfo {
	info := schemaInfo{Nested: s.Nested(), Warnings: s.Warnings()}
	s.EachPath(func(name string, t *docskema.SchemaType) {
		pi := pathInfo{Path: name, Instance: string(t.Instance()), Required: t.IsRequired()}
		switch {
		case t.IsDocumentArray():
			pi.Element = string(docskema.InstanceEmbedded)
		case t.Caster() != nil:
			pi.Element = string(t.Caster().Instance())
		}
		opts := t.Options()
		for k, v := range opts {
			if k == "validate" || isFunc(v) {
				opts[k] = "<func>"
			}
		}
		if len(opts) > 0 {
			pi.Options = opts
		}
		info.Paths = append(info.Paths, pi)
	})
	return info
}

func isFunc(v any) bool {
	switch v.(type) {
	case func() any, func(any) bool, func(context.Context, any) error, docskema.Validator:
		return true
	}
	return false
}

func printSchema(w io.Writer, s *docskema.Schema, format string) error {
	info := describe(s)
	switch format {
	case "json":
		b, err := j.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "dump":
		cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true, DisableCapacities: true}
		cfg.Fdump(w, info)
		return nil
	case "text", "":
		for _, p := range info.Paths {
			inst := p.Instance
			if p.Element != "" {
				inst += "<" + p.Element + ">"
			}
			line := p.Path + "\t" + inst
			if p.Required {
				line += "\trequired"
			}
			fmt.Fprintln(w, line)
		}
		for _, n := range info.Nested {
			fmt.Fprintln(w, n+"\tnested")
		}
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}

func compileCmd(args []string, stdout, stderr io.Writer) int {
	fs, c := newFlagSet("compile", stderr)
	var format string
	var watch bool
	fs.StringVar(&format, "format", "text", "output format: text, json or dump")
	fs.BoolVar(&watch, "watch", false, "recompile when the definition file changes")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	s, log, opts, ok := c.load(stderr)
	if !ok {
		return 1
	}
	if err := printSchema(stdout, s, format); err != nil {
		log.Error("print failed", "error", err)
		return 1
	}
	if !watch {
		return 0
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := yamldef.Watch(ctx, c.file, func(s *docskema.Schema, err error) {
		if err != nil {
			log.Error("recompile failed", "file", c.file, "error", err)
			return
		}
		log.Info("recompiled", "file", c.file)
		if err := printSchema(stdout, s, format); err != nil {
			log.Error("print failed", "error", err)
		}
	}, opts...)
	if err != nil {
		log.Error("watch failed", "error", err)
		return 1
	}
	<-ctx.Done()
	return 0
}

func constructCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs, c := newFlagSet("construct", stderr)
	var in string
	fs.StringVar(&in, "in", "-", "JSON input document, - for stdin")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	s, log, _, ok := c.load(stderr)
	if !ok {
		return 1
	}
	var data []byte
	var err error
	if in == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(in)
	}
	if err != nil {
		log.Error("read input failed", "error", err)
		return 1
	}
	doc, err := docskema.NewDocumentFromJSON(s, data, docskema.WithDuplicateKeys(docskema.DuplicateError))
	if err != nil {
		log.Error("construct failed", "error", err)
		return 1
	}
	out, err := doc.MarshalJSON()
	if err != nil {
		log.Error("encode failed", "error", err)
		return 1
	}
	fmt.Fprintln(stdout, string(out))
	if err := doc.Validate(context.Background()); err != nil {
		iss, _ := docskema.AsIssues(err)
		for _, it := range iss {
			fmt.Fprintf(stderr, "%s: %s\n", it.Path, strings.TrimSpace(it.Message))
		}
		return 1
	}
	return 0
}

func jsonschemaCmd(args []string, stdout, stderr io.Writer) int {
	fs, c := newFlagSet("jsonschema", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	s, log, _, ok := c.load(stderr)
	if !ok {
		return 1
	}
	b, err := j.MarshalIndent(s.JSONSchema(), "", "  ")
	if err != nil {
		log.Error("encode failed", "error", err)
		return 1
	}
	fmt.Fprintln(stdout, string(b))
	return 0
}
