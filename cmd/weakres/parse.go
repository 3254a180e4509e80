// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/weakres/weakres/internal/sink"
	"github.com/weakres/weakres/pkg/modident"
)

// identityView is the structured output of "weakres parse".
type identityView struct {
	Name           string `json:"name" yaml:"name"`
	Version        string `json:"version,omitempty" yaml:"version,omitempty"`
	Culture        string `json:"culture,omitempty" yaml:"culture,omitempty"`
	PublicKeyToken string `json:"public_key_token,omitempty" yaml:"public_key_token,omitempty"`
	Signed         bool   `json:"signed" yaml:"signed"`
	FullName       string `json:"full_name" yaml:"full_name"`
}

func newParseCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse <full-name>",
		Short: "Parse a module full name and print its normalized fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := sink.ParseFormat(format)
			if err != nil {
				return err
			}
			id, err := parseIdentityArg(args[0])
			if err != nil {
				return err
			}
			return printIdentity(app, id, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", string(sink.FormatText), "output format: text, json or yaml")

	return cmd
}

func newIdentityView(id modident.Identity) identityView {
	v := identityView{
		Name:     id.Name(),
		Culture:  id.Culture(),
		Signed:   id.Signed(),
		FullName: id.FullName(),
	}
	if ver := id.Version(); ver != nil {
		v.Version = ver.String()
	}
	if id.Signed() {
		v.PublicKeyToken = hex.EncodeToString(id.PublicKeyToken())
	}
	return v
}

func printIdentity(app *App, id modident.Identity, format sink.Format) error {
	v := newIdentityView(id)
	switch format {
	case sink.FormatJSON:
		enc := json.NewEncoder(app.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case sink.FormatYAML:
		enc := yaml.NewEncoder(app.stdout)
		defer func() { _ = enc.Close() }()
		return enc.Encode(v)
	}

	orNone := func(s string) string {
		if s == "" {
			return SubtitleStyle.Render("(none)")
		}
		return s
	}
	rows := [][2]string{
		{"Name", v.Name},
		{"Version", orNone(v.Version)},
		{"Culture", orNone(v.Culture)},
		{"PublicKeyToken", orNone(v.PublicKeyToken)},
		{"Signed", fmt.Sprint(v.Signed)},
		{"Full name", IdentityStyle.Render(v.FullName)},
	}
	for _, row := range rows {
		fmt.Fprintln(app.stdout, LabelStyle.Render(row[0])+row[1])
	}
	return nil
}
