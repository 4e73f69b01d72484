package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/hanpama/graphplan/internal/collect"
	"github.com/hanpama/graphplan/internal/eventbus"
	"github.com/hanpama/graphplan/internal/language"
	"github.com/hanpama/graphplan/internal/otel"
	"github.com/hanpama/graphplan/internal/schema"
	"github.com/hanpama/graphplan/internal/server"
	"github.com/hanpama/graphplan/internal/validation"
	"go.uber.org/zap"
)

const rootUsage = `graphplan — GraphQL field-merge validation & collection planning

USAGE:
  graphplan <command> [flags]

COMMANDS:
  validate         Check a document's overlapping fields against a schema
  plan             Print the grouped-field-set plan for one operation
  render           Print a schema back as normalized SDL
  serve            Run the HTTP analysis service
  help             Show help for any command
`

const validateUsage = `validate FLAGS:
  -schema <file>   GraphQL SDL schema file (required)
  -query <file>    Executable document file (required)
  (Exits non-zero when the document has merge conflicts)
`

const planUsage = `plan FLAGS:
  -schema <file>      GraphQL SDL schema file (required)
  -query <file>       Executable document file (required)
  -op <name>          Operation name (required for multi-operation documents)
  -vars <json>        Variable values as a JSON object
  -out <file>         Write the plan JSON to file (default: stdout)
`

const renderUsage = `render FLAGS:
  -schema <file>   GraphQL SDL schema file (required)
  -out <file>      Write the normalized SDL to file (default: stdout)
  (Types and directives come out sorted; built-ins are omitted)
`

const serveUsage = `serve FLAGS:
  -server.addr <addr>        HTTP listen address (default: :8080)
  -server.pretty             Pretty-print JSON responses
  -server.timeout <duration> Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body <bytes>   Request body size limit (default: 1048576)
  -server.cors <origin>      Allowed CORS origin. Repeatable
  -otel.endpoint <addr>      OTLP collector endpoint
  -otel.service <name>       OpenTelemetry service name (default: graphplan)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("graphplan", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "validate":
		return cmdValidate(cmdArgs)
	case "plan":
		return cmdPlan(cmdArgs)
	case "render":
		return cmdRender(cmdArgs)
	case "serve":
		return cmdServe(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "validate":
		fmt.Print(validateUsage)
	case "plan":
		fmt.Print(planUsage)
	case "render":
		fmt.Print(renderUsage)
	case "serve":
		fmt.Print(serveUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func loadInputs(schemaFile, queryFile string) (*schema.Schema, *language.QueryDocument, error) {
	sdl, err := os.ReadFile(schemaFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read schema: %w", err)
	}
	sch, err := schema.FromSDL(schemaFile, string(sdl))
	if err != nil {
		return nil, nil, fmt.Errorf("load schema: %w", err)
	}
	src, err := os.ReadFile(queryFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read query: %w", err)
	}
	doc, err := language.ParseQuery(string(src))
	if err != nil {
		return nil, nil, fmt.Errorf("parse query: %w", err)
	}
	return sch, doc, nil
}

func cmdValidate(args []string) error {
	schemaFile := ""
	queryFile := ""
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL schema file")
	fs.StringVar(&queryFile, "query", queryFile, "Executable document file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, validateUsage)
		return err
	}
	if schemaFile == "" || queryFile == "" {
		fmt.Fprint(os.Stderr, validateUsage)
		return fmt.Errorf("-schema and -query are required")
	}

	sch, doc, err := loadInputs(schemaFile, queryFile)
	if err != nil {
		return err
	}
	diagnostics := validation.Validate(sch, doc)
	for _, d := range diagnostics {
		loc := ""
		if len(d.Locations) > 0 {
			loc = fmt.Sprintf("%d:%d: ", d.Locations[0].Line, d.Locations[0].Column)
		}
		fmt.Printf("%s%s\n", loc, d.Message)
	}
	if len(diagnostics) > 0 {
		return fmt.Errorf("%d merge conflict(s)", len(diagnostics))
	}
	fmt.Println("ok")
	return nil
}

func cmdPlan(args []string) error {
	schemaFile := ""
	queryFile := ""
	opName := ""
	varsJSON := ""
	outFile := ""
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL schema file")
	fs.StringVar(&queryFile, "query", queryFile, "Executable document file")
	fs.StringVar(&opName, "op", opName, "Operation name")
	fs.StringVar(&varsJSON, "vars", varsJSON, "Variable values as a JSON object")
	fs.StringVar(&outFile, "out", outFile, "Write the plan JSON to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, planUsage)
		return err
	}
	if schemaFile == "" || queryFile == "" {
		fmt.Fprint(os.Stderr, planUsage)
		return fmt.Errorf("-schema and -query are required")
	}

	variables := map[string]any{}
	if varsJSON != "" {
		if err := json.Unmarshal([]byte(varsJSON), &variables); err != nil {
			return fmt.Errorf("invalid -vars JSON: %w", err)
		}
	}

	sch, doc, err := loadInputs(schemaFile, queryFile)
	if err != nil {
		return err
	}
	plan, err := collect.BuildPlan(sch, doc, opName, variables)
	if err != nil {
		return fmt.Errorf("build plan: %w", err)
	}
	out, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	if outFile == "" {
		fmt.Println(string(out))
		return nil
	}
	return os.WriteFile(outFile, append(out, '\n'), 0644)
}

func cmdRender(args []string) error {
	schemaFile := ""
	outFile := ""
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL schema file")
	fs.StringVar(&outFile, "out", outFile, "Write the normalized SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, renderUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(os.Stderr, renderUsage)
		return fmt.Errorf("-schema is required")
	}

	sdl, err := os.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	sch, err := schema.FromSDL(schemaFile, string(sdl))
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	out := schema.Render(sch)
	if outFile == "" {
		fmt.Print(out)
		return nil
	}
	return os.WriteFile(outFile, []byte(out), 0644)
}

func cmdServe(args []string) error {
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	maxBody := int64(1 << 20)
	otelEndpoint := ""
	otelService := "graphplan"
	var corsOrigins stringListFlag

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Int64Var(&maxBody, "server.max-body", maxBody, "Request body size limit")
	fs.Var(&corsOrigins, "server.cors", "Allowed CORS origin")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	sopts := []server.Option{
		server.WithLogger(logger),
		server.WithMaxBodyBytes(maxBody),
	}
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	if len(corsOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(corsOrigins...))
	}
	h, err := server.New(sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/validate", h)
	mux.Handle("/plan", h)

	logger.Info("analysis server listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}
