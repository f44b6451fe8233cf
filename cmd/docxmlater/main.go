// Command docxmlater inspects and maintains WordprocessingML packages.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ItMeDiaTech/docXMLater-sub005/pkg/docxml"
)

const version = "0.1.0"

// CLI defines the command-line interface.
var CLI struct {
	LogLevel string `name:"log-level" help:"Log verbosity (debug, info, warn, error, off)" default:"warn"`

	Inspect   InspectCmd   `cmd:"" help:"List parts and content summary of a package"`
	Rels      RelsGroup    `cmd:"" help:"Relationship table operations"`
	Fields    FieldsCmd    `cmd:"" help:"List complex fields with parsed instructions"`
	Roundtrip RoundtripCmd `cmd:"" help:"Load a package and write it back"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// RelsGroup contains relationship operations.
type RelsGroup struct {
	List  RelsListCmd  `cmd:"" help:"List relationships per content part"`
	Sweep RelsSweepCmd `cmd:"" help:"Remove orphaned relationships and save"`
}

// InspectCmd lists parts and block counts.
type InspectCmd struct {
	Path string `arg:"" help:"Package file" type:"existingfile"`
}

func (c *InspectCmd) Run() error {
	doc, err := docxml.Open(c.Path)
	if err != nil {
		return err
	}
	for _, warn := range doc.Warnings() {
		fmt.Printf("warning: %s\n", warn)
	}
	for _, part := range doc.ContentParts() {
		model := doc.Model(part)
		switch {
		case model.Body != nil:
			paras := len(model.Body.Paragraphs())
			tables := len(model.Body.Tables())
			fmt.Printf("%s: %d blocks (%d paragraphs, %d tables)\n",
				part, len(model.Body.Elements), paras, tables)
		default:
			fmt.Printf("%s: %d notes\n", part, len(model.Notes))
		}
	}
	return nil
}

// RelsListCmd prints every relationship table.
type RelsListCmd struct {
	Path string `arg:"" help:"Package file" type:"existingfile"`
}

func (c *RelsListCmd) Run() error {
	doc, err := docxml.Open(c.Path)
	if err != nil {
		return err
	}
	for _, part := range doc.ContentParts() {
		table := doc.Relationships(part)
		if table.Len() == 0 {
			continue
		}
		fmt.Printf("%s:\n", part)
		for _, rel := range table.All() {
			mode := "internal"
			if rel.External() {
				mode = "external"
			}
			fmt.Printf("  %s  %s  %s (%s)\n", rel.ID, rel.Type, rel.Target, mode)
		}
	}
	return nil
}

// RelsSweepCmd removes orphans and rewrites the package in place.
type RelsSweepCmd struct {
	Path   string `arg:"" help:"Package file" type:"existingfile"`
	DryRun bool   `name:"dry-run" help:"Report orphans without saving"`
}

func (c *RelsSweepCmd) Run() error {
	doc, err := docxml.Open(c.Path)
	if err != nil {
		return err
	}
	removed, err := doc.SweepOrphans()
	if err != nil {
		return err
	}
	for _, rel := range removed {
		fmt.Printf("orphan: %s -> %s\n", rel.ID, rel.Target)
	}
	if len(removed) == 0 {
		fmt.Println("no orphaned relationships")
		return nil
	}
	if c.DryRun {
		return nil
	}
	return doc.Save(c.Path)
}

// FieldsCmd lists complex fields with their parsed instructions.
type FieldsCmd struct {
	Path string `arg:"" help:"Package file" type:"existingfile"`
}

func (c *FieldsCmd) Run() error {
	doc, err := docxml.Open(c.Path)
	if err != nil {
		return err
	}
	body := doc.Body()
	if body == nil {
		return fmt.Errorf("no document body")
	}
	for i, para := range body.Paragraphs() {
		for _, field := range para.Fields() {
			parsed, err := field.ParsedInstruction()
			if err != nil {
				fmt.Printf("p%d: %q (unparsed: %v)\n", i, field.Instruction, err)
				continue
			}
			fmt.Printf("p%d: %s args=%v switches=%v\n", i, parsed.Name, parsed.Arguments, parsed.Switches)
		}
	}
	return nil
}

// RoundtripCmd loads a package and writes it back out.
type RoundtripCmd struct {
	Path   string `arg:"" help:"Package file" type:"existingfile"`
	Output string `arg:"" optional:"" help:"Output path (defaults to input)"`
}

func (c *RoundtripCmd) Run() error {
	doc, err := docxml.Open(c.Path)
	if err != nil {
		return err
	}
	for _, warn := range doc.Warnings() {
		fmt.Printf("warning: %s\n", warn)
	}
	out := c.Output
	if out == "" {
		out = c.Path
	}
	return doc.Save(out)
}

// VersionCmd prints the tool version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("docxmlater version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("docxmlater"),
		kong.Description("Inspect and maintain WordprocessingML packages."),
		kong.UsageOnError(),
	)

	config := docxml.GetGlobalConfig()
	config.LogLevel = CLI.LogLevel
	docxml.SetGlobalConfig(config)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "docxmlater: %v\n", err)
		os.Exit(1)
	}
}
