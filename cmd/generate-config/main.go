// Command generate-config writes the default admin configuration as an
// example YAML file.
package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/debemdeboas/the-archive-admin/internal/config"
)

const header = `# The Archive Admin configuration example
# Copy this file to config.yaml and customize as needed.
# API_BASE_URL, API_TOKEN, SERVER_PORT, LOG_LEVEL and DRAFT_BACKEND
# override the matching settings from the environment or a .env file.

`

func main() {
	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		if err := write(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
			os.Exit(1)
		}
		return
	}

	f, err := os.Create(outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := write(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}

// write emits the defaults with the header comment.
func write(w io.Writer) error {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
