package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommandRegistration(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"source", "resolve", "enrich", "batch", "taxonomy", "match", "news", "export", "serve"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestSourceSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range sourceCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["gleif"])
	assert.True(t, names["companies-house"])
}
