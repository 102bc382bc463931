// Package workbench declares the client-side tool descriptors executed by
// the attached workbench application rather than in-process. The gateway only
// knows their names and parameter schemas; calls are forwarded over the
// workbench bridge and correlated back by request id.
package workbench

import "github.com/seqconsole/seqconsole"

// Descriptors returns the tools the workbench executes on the gateway's
// behalf. Handlers are nil by construction: that is what marks a tool as
// client-side.
func Descriptors() []gateway.ToolDescriptor {
	return []gateway.ToolDescriptor{
		{
			Name: "render_codon_chart",
			Description: "Render a codon usage chart for a previously analyzed sequence " +
				"in the workbench's plotting pane.",
			Params: []gateway.ParamSpec{
				{
					Name:        "sequence",
					Type:        "string",
					Description: "Protein sequence to chart",
					Required:    true,
				},
				{
					Name:        "chartType",
					Type:        "string",
					Description: "Chart style: bar, heatmap, or wheel",
					Default:     "bar",
				},
			},
		},
		{
			Name:        "fetch_structure",
			Description: "Look up a protein structure by PDB identifier and load it into the workbench viewer.",
			Params: []gateway.ParamSpec{
				{
					Name:        "pdbId",
					Type:        "string",
					Description: "Four-character PDB identifier, e.g. 2AJT",
					Required:    true,
				},
				{
					Name:        "assembly",
					Type:        "integer",
					Description: "Biological assembly number to load",
					Default:     1,
				},
			},
		},
		{
			Name:        "annotate_structure",
			Description: "Highlight residues on the structure currently loaded in the workbench viewer.",
			Params: []gateway.ParamSpec{
				{
					Name:        "residues",
					Type:        "array",
					Description: "Residue numbers to highlight",
					Required:    true,
				},
				{
					Name:        "color",
					Type:        "string",
					Description: "Highlight color name",
					Default:     "orange",
				},
			},
		},
	}
}
