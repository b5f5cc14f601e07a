package main

import (
	"fmt"
	"path/filepath"
)

type Config struct {
	InputPath  string
	OutputPath string
	Pretty     bool
	Overwrite  bool
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("missing -in")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("missing -out")
	}
	if filepath.Clean(c.InputPath) == filepath.Clean(c.OutputPath) {
		return fmt.Errorf("-out must differ from -in")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		OutputPath: filepath.FromSlash("out/records.json"),
	}
}
