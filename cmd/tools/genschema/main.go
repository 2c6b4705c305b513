// genschema writes the JSON schema of the configuration files, or of the
// tool declarations published to the model.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Ocada-ai-biz/agentx/internal/config"
	"github.com/Ocada-ai-biz/agentx/internal/registry"
	"github.com/Ocada-ai-biz/agentx/internal/tools"
)

func main() {
	var outFile, kind string
	flag.StringVar(&outFile, "out", "schema.json", "Output file path")
	flag.StringVar(&kind, "kind", "config", "Schema to generate: config or tools")
	flag.Parse()

	if !filepath.IsAbs(outFile) {
		wd, err := os.Getwd()
		if err != nil {
			fail("Error getting working directory: %v", err)
		}
		outFile = filepath.Join(wd, outFile)
	}

	var doc any
	switch kind {
	case "config":
		schema, err := config.GenerateJSONSchema()
		if err != nil {
			fail("Error generating schema: %v", err)
		}
		doc = schema
	case "tools":
		reg := registry.New()
		if err := tools.Register(reg, tools.Deps{}); err != nil {
			fail("Error registering tools: %v", err)
		}
		doc = reg.Declarations()
	default:
		fail("Unknown schema kind %q", kind)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		fail("Error marshaling schema: %v", err)
	}

	dir := filepath.Dir(outFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		fail("Error creating directory %s: %v", dir, err)
	}
	if err := os.WriteFile(outFile, out, 0644); err != nil {
		fail("Error writing schema to %s: %v", outFile, err)
	}
	fmt.Printf("Schema written to %s\n", outFile)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
