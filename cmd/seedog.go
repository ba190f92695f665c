package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/google/shlex"
	"github.com/isobit/cli"

	"github.com/isobit/seedog/internal"
	"github.com/isobit/seedog/internal/log"
	"github.com/isobit/seedog/internal/schemes"
	seedog_tls "github.com/isobit/seedog/internal/tls"
	"github.com/isobit/seedog/internal/version"
)

func main() {
	if stderrStat, err := os.Stderr.Stat(); err == nil {
		if stderrStat.Mode()&os.ModeCharDevice != 0 {
			log.LogColor = true
		}
	}

	defaultMutation := seedog.DefaultMutation()
	err := cli.New("seedog", &Seedog{
		Endpoint:  &url.URL{Scheme: "http", Host: "127.0.0.1:8080"},
		Count:     100,
		Field:     defaultMutation.Field,
		InputType: defaultMutation.InputType,
		Selection: defaultMutation.Selection,
	}).
		Parse().
		Run()

	if err != nil && err != cli.ErrHelp {
		log.Logf(-1, "error: %s", err)
		os.Exit(1)
	}
}

type Seedog struct {
	Endpoint *url.URL `cli:"short=e,placeholder=URL,help=GraphQL endpoint to register users with"`
	Count    int      `cli:"short=n,help=number of users to register"`

	Options []string `cli:"short=o,name=option,append,placeholder=KEY=VAL,nodefault,help=scheme options; may be passed multiple times; prefix with out. for the --out scheme"`

	Inline    bool   `cli:"help=interpolate escaped values into the query instead of sending variables"`
	InputArg  string `cli:"placeholder=NAME,help=pass the fields as one input object argument with this name"`
	InputType string `cli:"placeholder=TYPE,help=GraphQL type of the input object argument"`
	Field     string `cli:"placeholder=NAME,help=mutation field to call"`
	Selection string `cli:"placeholder=FIELDS,help=selection set to request from the mutation"`
	Schema    string `cli:"placeholder=PATH,help=check each mutation against this GraphQL SDL file before sending"`
	Seed      int    `cli:"help=seed for generated users; 0 is random"`
	Strict    bool   `cli:"help=treat HTTP error statuses and GraphQL errors as failures"`

	Out  *url.URL `cli:"placeholder=URL,help=also write each registered user to this URL"`
	Exec string   `cli:"short=x,help=execute a command and write each registered user to its stdin"`
	Tee  bool     `cli:"short=t,help=also write command input to stdout"`

	ListSchemes bool   `cli:"short=L,help=list available schemes"`
	SchemeHelp  string `cli:"short=H,help=show help for scheme"`
	Version     bool   `cli:"short=V,help=show version"`

	Verbose  bool `cli:"short=v,help=more verbose logging"`
	Quiet    bool `cli:"short=q,help=disable all logging"`
	Debug    bool `cli:"help=maximum logging"`
	LogLevel int  `cli:"hidden"`
	LogIO    bool `cli:"help=log all requests and responses"`

	TLSSkipVerify bool   `cli:"name=tls-skip-verify,env=SEEDOG_TLS_SKIP_VERIFY,help=do not verify server certificates"`
	TLSServerName string `cli:"name=tls-server-name,env=SEEDOG_TLS_SERVER_NAME,help=server name to verify"`
	TLSCert       string `cli:"name=tls-cert,env=SEEDOG_TLS_CERT,help=client certificate"`
	TLSKey        string `cli:"name=tls-key,env=SEEDOG_TLS_KEY,help=client certificate key"`
	TLSCACert     string `cli:"name=tls-ca-cert,env=SEEDOG_TLS_CA_CERT,help=extra root CA to trust"`
}

func (cmd Seedog) Run() error {
	if cmd.Version {
		fmt.Println(version.Version)
		return nil
	}
	if cmd.ListSchemes {
		return listSchemes()
	}
	if cmd.SchemeHelp != "" {
		return schemeHelp(cmd.SchemeHelp)
	}

	switch {
	case cmd.Verbose && cmd.Quiet:
		return cli.UsageErrorf("--verbose and --quiet are mutually exclusive")
	case cmd.LogLevel != 0:
		log.LogLevel = cmd.LogLevel
	case cmd.Quiet:
		log.LogLevel = -10
	case cmd.Verbose:
		log.LogLevel = 1
	case cmd.Debug:
		log.LogLevel = 10
	}

	if cmd.Count < 0 {
		return cli.UsageErrorf("--count must not be negative")
	}
	if cmd.Tee && cmd.Exec == "" {
		return cli.UsageErrorf("--tee requires --exec")
	}

	dialOpts, sinkOpts := splitOptions(seedog.ParseOptions(cmd.Options))
	tlsConfig := seedog_tls.Config{
		TLSSkipVerify: cmd.TLSSkipVerify,
		TLSServerName: cmd.TLSServerName,
		TLSCert:       cmd.TLSCert,
		TLSKey:        cmd.TLSKey,
		TLSCACert:     cmd.TLSCACert,
	}

	seeder := &seedog.Seeder{
		Generator: seedog.NewFakeGenerator(uint64(cmd.Seed)),
		Mutation: seedog.Mutation{
			Field:     cmd.Field,
			InputArg:  cmd.InputArg,
			InputType: cmd.InputType,
			Selection: cmd.Selection,
			Inline:    cmd.Inline,
		},
		Lookup: schemes.Lookup,
		Config: seedog.Config{
			Options: dialOpts,
			TLS:     tlsConfig,
		},
		LogIO:  cmd.LogIO,
		Strict: cmd.Strict,
	}

	if cmd.Schema != "" {
		schema, err := seedog.LoadSchema(cmd.Schema)
		if err != nil {
			return err
		}
		seeder.Schema = schema
	}

	sink, err := cmd.openSinks(sinkOpts, tlsConfig)
	if err != nil {
		return err
	}
	if sink != nil {
		seeder.Sink = sink
		defer func() {
			if err := sink.Close(); err != nil {
				log.Logf(-1, "error closing output: %s", err)
			}
		}()
	} else if len(sinkOpts) > 0 {
		return cli.UsageErrorf("out. options require --out")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return seeder.Run(ctx, cmd.Count, cmd.Endpoint)
}

// splitOptions separates options for the --out scheme, which are prefixed
// with "out.", from the options for the endpoint scheme.
func splitOptions(opts seedog.Options) (dialOpts seedog.Options, sinkOpts seedog.Options) {
	sinkOpts = seedog.Options(opts.PopPrefix("out."))
	return opts, sinkOpts
}

// outURL treats a URL without a scheme, like a bare path, as a file URL.
func outURL(u *url.URL) *url.URL {
	if u.Scheme != "" {
		return u
	}
	urlCopy := *u
	urlCopy.Scheme = "file"
	return &urlCopy
}

func (cmd Seedog) openSinks(sinkOpts seedog.Options, tlsConfig seedog_tls.Config) (seedog.Sink, error) {
	var sinks seedog.MultiSink

	if cmd.Out != nil {
		u := outURL(cmd.Out)
		scheme := schemes.Lookup(u.Scheme)
		if scheme == nil || scheme.Open == nil {
			return nil, fmt.Errorf("unknown out scheme: %s", u.Scheme)
		}
		sink, err := scheme.Open(seedog.Config{
			URL:     u,
			Options: sinkOpts,
			TLS:     tlsConfig,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	if cmd.Exec != "" {
		args, err := shlex.Split(cmd.Exec)
		if err != nil {
			sinks.Close()
			return nil, cli.UsageErrorf("failed to split exec args: %s", err)
		}
		var tee io.Writer
		if cmd.Tee {
			tee = os.Stdout
		}
		sink, err := seedog.NewExecSink(args, os.Stdout, tee)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}

func listSchemes() error {
	list := make([]string, 0, len(schemes.Registry))
	for name, scheme := range schemes.Registry {
		if isHiddenName(scheme, name) {
			continue
		}
		list = append(list, name)
	}
	sort.Strings(list)

	w := tabwriter.NewWriter(os.Stderr, 0, 0, 1, ' ', 0)
	for _, name := range list {
		scheme := schemes.Registry[name]
		supports := []string{}
		if scheme.Dial != nil {
			supports = append(supports, "endpoint")
		}
		if scheme.Open != nil {
			supports = append(supports, "out")
		}

		fmt.Fprint(w, name)
		if len(supports) > 0 {
			fmt.Fprintf(w, "\t (%s)", strings.Join(supports, ", "))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func isHiddenName(scheme *seedog.Scheme, name string) bool {
	for _, hidden := range scheme.HiddenNames {
		if hidden == name {
			return true
		}
	}
	return false
}

func schemeHelp(name string) error {
	scheme, ok := schemes.Registry[name]
	if !ok {
		return fmt.Errorf("unknown scheme: %s; use --list-schemes to show valid schemes", name)
	}

	w := tabwriter.NewWriter(os.Stderr, 0, 0, 1, ' ', 0)

	fmt.Fprintf(w, "SCHEME: %s\n", strings.Join(scheme.Names, " "))
	fmt.Fprintln(w)

	if scheme.Description != "" {
		fmt.Fprintf(w, "DESCRIPTION:\n")
		fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(strings.TrimSpace(scheme.Description), "\n", "\n    "))
		fmt.Fprintln(w)
	}

	if scheme.DialOptionHelp != nil {
		fmt.Fprintf(w, "ENDPOINT OPTIONS:\n")
		for _, h := range scheme.DialOptionHelp {
			fmt.Fprintf(w, "    %s\t%s\t%s\t\n", h.Name, h.Value, h.Description)
		}
		fmt.Fprintln(w)
	}

	if scheme.SinkOptionHelp != nil {
		fmt.Fprintf(w, "OUT OPTIONS (prefix with out.):\n")
		for _, h := range scheme.SinkOptionHelp {
			fmt.Fprintf(w, "    %s\t%s\t%s\t\n", h.Name, h.Value, h.Description)
		}
		fmt.Fprintln(w)
	}

	return w.Flush()
}
