// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies an entry in the issue catalog. The zero value means "no issue".
type Id int

const (
	PortInUseId Id = iota + 1
	PermissionDeniedId
	BindFailedId
	ConfigLoadFailedId
	ConfigInvalidId
	ConnectFailedId
)

type (
	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guidance with the given glamour style ("auto", "dark",
// "light", "notty" or a path to a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			sb.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(sb.String(), stylePath)
}

var (
	render = glamour.Render

	portInUseIssue = &Issue{
		id: PortInUseId,
		mdMsg: `
# Port already in use!

Another process is listening on the address lineserve tried to bind.

## Things you can try:
- Find the process holding the port:
~~~
$ lsof -iTCP:3000 -sTCP:LISTEN
~~~

- Pick a different port, or let the system choose one:
~~~
$ lineserve serve --port 3001
$ lineserve serve --port 0
~~~

- Set the port permanently in your config file:
~~~cue
server: {
  port: 3001
}
~~~`,
		extLinks: []HttpLink{"https://man7.org/linux/man-pages/man7/tcp.7.html"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

The operating system refused to open the listening socket.

## Common causes:
- Ports below 1024 require elevated privileges on most systems
- A firewall or sandbox blocks listening on this address

## Things you can try:
- Use an unprivileged port:
~~~
$ lineserve serve --port 3000
~~~

- Bind to the loopback address only:
~~~
$ lineserve serve --host 127.0.0.1
~~~`,
	}

	bindFailedIssue = &Issue{
		id: BindFailedId,
		mdMsg: `
# Could not start the server!

lineserve failed to open its listening socket.

## Things you can try:
- Check that the host is an address of this machine:
~~~
$ lineserve serve --host 127.0.0.1
~~~

- Show the effective configuration:
~~~
$ lineserve config show
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not read the lineserve configuration file.

## Configuration file locations (in order):
1. The file given with --config
2. $XDG_CONFIG_HOME/lineserve/config.cue (usually ~/.config/lineserve/config.cue)
3. ./config.cue

## Things you can try:
- Create a default configuration:
~~~
$ lineserve config init
~~~

- Remove the config file to use defaults:
~~~
$ rm ~/.config/lineserve/config.cue
~~~`,
	}

	configInvalidIssue = &Issue{
		id: ConfigInvalidId,
		mdMsg: `
# Invalid configuration!

The configuration file does not match the lineserve schema.

## Example configuration:
~~~cue
server: {
  host: "127.0.0.1"
  port: 3000
  max_line_bytes: 65536
  close_connections_on_stop: false
}

log: {
  level: "info"   // debug, info, warn, error
  format: "text"  // text, json, logfmt
}
~~~

## Things you can try:
- Check the error message above for the offending field
- Override single values with environment variables:
~~~
$ LINESERVE_SERVER_PORT=3001 lineserve serve
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	connectFailedIssue = &Issue{
		id: ConnectFailedId,
		mdMsg: `
# Could not connect!

No server accepted the connection at the given address.

## Things you can try:
- Start a server first:
~~~
$ lineserve serve
~~~

- Check the address and port:
~~~
$ lineserve send --addr 127.0.0.1:3000
~~~`,
	}

	issues = map[Id]*Issue{
		portInUseIssue.Id():        portInUseIssue,
		permissionDeniedIssue.Id(): permissionDeniedIssue,
		bindFailedIssue.Id():       bindFailedIssue,
		configLoadFailedIssue.Id(): configLoadFailedIssue,
		configInvalidIssue.Id():    configInvalidIssue,
		connectFailedIssue.Id():    connectFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	ids := slices.Sorted(maps.Keys(issues))
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
