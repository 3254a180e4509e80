// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	RegistrationFailedId Id = iota + 1
	ModuleNotFoundId
	LoadedModulesUnavailableId
	ConfigLoadFailedId
	ManifestParseFailedId
	InvalidIdentityId
	UnknownTieBreakRuleId
	MetricsServerFailedId
)

type Id int

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	name     string      // slug accepted by "weakres explain"
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Name() string {
	return i.name
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue with a glamour style ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.extLinks) > 0 {
		var sb strings.Builder
		sb.WriteString(md)
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			sb.WriteString("- <" + string(link) + ">\n")
		}
		md = sb.String()
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	registrationFailedIssue = &Issue{
		id:   RegistrationFailedId,
		name: "registration-failed",
		mdMsg: `
# Could not install the weak resolver!

The host runtime rejected the resolve handler. The install count was rolled back,
so the resolver is not active and no scope was handed out.

## Things you can try:
- Check whether another component already registered the same handler
- Retry the install once the runtime is fully initialized
- Run with ` + "`--verbose`" + ` to see the runtime's error`,
	}

	moduleNotFoundIssue = &Issue{
		id:   ModuleNotFoundId,
		name: "module-not-found",
		mdMsg: `
# Module not found!

No loaded module matched the requested simple name, so the weak resolver declined
the request and the load failed. A ` + "`Failed`" + ` conflict record was captured.

## Things you can try:
- Add the module to the manifest's ` + "`modules`" + ` list
- Check the spelling of the simple name (matching is case-sensitive by default)
- Enable case-insensitive matching:
~~~cue
matcher: case_insensitive: true
~~~`,
	}

	loadedModulesUnavailableIssue = &Issue{
		id:   LoadedModulesUnavailableId,
		name: "loaded-modules-unavailable",
		mdMsg: `
# Loaded modules could not be enumerated!

The runtime failed to list its loaded modules while a resolution was in progress.
The request was aborted and no conflict record was captured.

## Things you can try:
- Retry the load; enumeration failures are usually transient
- Run with ` + "`--verbose`" + ` for the runtime's error chain`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "config-load-failed",
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Print the effective defaults:
~~~
$ weakres config show
~~~
- Check the CUE syntax of your config file
- Remove the file to fall back to defaults

## Example config:
~~~cue
matcher: {
	case_insensitive: false
	tie_break: ["highest-version", "prefer-signed"]
}
recorder: capacity: 0
log: level: "info"
~~~`,
	}

	manifestParseFailedIssue = &Issue{
		id:   ManifestParseFailedId,
		name: "manifest-parse-failed",
		mdMsg: `
# Failed to parse the manifest!

The manifest lists the loaded modules and the load requests to replay. It may be
written in CUE (` + "`.cue`" + `), TOML (` + "`.toml`" + `) or YAML (` + "`.yaml`" + `, ` + "`.yml`" + `).

## Example manifest:
~~~yaml
modules:
  - name: App, Version=1.0.0.0
    references: ["Lib, Version=2.0.0.0"]
  - name: Lib, Version=1.5.0.0
requests:
  - requesting: App, Version=1.0.0.0
    wanted: Lib, Version=2.0.0.0
~~~`,
	}

	invalidIdentityIssue = &Issue{
		id:   InvalidIdentityId,
		name: "invalid-identity",
		mdMsg: `
# Invalid module identity!

A full name is a simple name optionally followed by comma-separated attributes:

~~~
Name, Version=1.2.3.4, Culture=neutral, PublicKeyToken=b77a5c561934e089
~~~

## Rules:
- The simple name must be non-empty and must not contain ` + "`,`" + ` or ` + "`=`" + `
- Versions have two to four numeric components
- ` + "`PublicKeyToken`" + ` is hex or ` + "`null`",
	}

	unknownTieBreakRuleIssue = &Issue{
		id:   UnknownTieBreakRuleId,
		name: "unknown-tie-break-rule",
		mdMsg: `
# Unknown tie-break rule!

When several loaded modules share the wanted simple name, the resolver orders them
with the configured rules. The first loaded module always wins a remaining tie.

## Known rules:
- ` + "`highest-version`" + `: the highest version wins (a missing version is lowest)
- ` + "`prefer-signed`" + `: modules with a public key token win
- ` + "`first-loaded`" + `: the earliest loaded module wins`,
	}

	metricsServerFailedIssue = &Issue{
		id:   MetricsServerFailedId,
		name: "metrics-server-failed",
		mdMsg: `
# Metrics endpoint could not start!

## Things you can try:
- Pick a free address for ` + "`--metrics-addr`" + `, for example ` + "`127.0.0.1:9464`" + `
- Leave ` + "`--metrics-addr`" + ` empty to disable the endpoint`,
		extLinks: []HttpLink{"https://prometheus.io/docs/instrumenting/exposition_formats/"},
	}

	issues = map[Id]*Issue{
		registrationFailedIssue.Id():       registrationFailedIssue,
		moduleNotFoundIssue.Id():           moduleNotFoundIssue,
		loadedModulesUnavailableIssue.Id(): loadedModulesUnavailableIssue,
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		manifestParseFailedIssue.Id():      manifestParseFailedIssue,
		invalidIdentityIssue.Id():          invalidIdentityIssue,
		unknownTieBreakRuleIssue.Id():      unknownTieBreakRuleIssue,
		metricsServerFailedIssue.Id():      metricsServerFailedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an issue by its slug name.
func Lookup(name string) *Issue {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, i := range issues {
		if i.name == name {
			return i
		}
	}
	return nil
}
