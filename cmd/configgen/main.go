package main

import (
	"flag"
	"log"

	"github.com/mocapkit/mocapctl/internal/config"
)

func main() {
	kind := flag.String("kind", "preview", "config kind: preview|configurable|sensor|raw")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = "stream.toml"
		}
		if _, err := config.LoadStreamConfig(path); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated stream config at %s", path)
		return
	}

	target := *output
	if target == "" {
		target = *kind + ".toml"
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}
