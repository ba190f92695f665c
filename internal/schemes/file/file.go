package file

import (
	"fmt"
	"io"
	"os"

	"github.com/isobit/seedog/internal"
	"github.com/isobit/seedog/internal/ioutil"
	"github.com/isobit/seedog/internal/log"
)

var Scheme = &seedog.Scheme{
	Names: []string{"file"},
	Open:  Open,

	Description: `
Open writes every registered record to a file, or to stdout if the path is "-".
A bare path without a scheme is treated as a file URL.

Examples:
	seedog --out users.jsonl
	seedog --out file:///tmp/users.msgpack -o out.format=msgpack
	`,
	SinkOptionHelp: seedog.OptionsHelp{}.
		Add("append", "", "append to the file instead of truncating it").
		Add("format", "<FORMAT>", "json (default) or msgpack"),
}

type sinkOptions struct {
	Format string
	Append bool
}

func extractSinkOptions(opts seedog.Options) (sinkOptions, error) {
	o := sinkOptions{
		Format: "json",
	}

	if val, ok := opts.Pop("format"); ok {
		switch val {
		case "json", "msgpack":
			o.Format = val
		default:
			return o, fmt.Errorf("unknown format: %s", val)
		}
	}

	if _, ok := opts.Pop("append"); ok {
		o.Append = true
	}

	return o, opts.Done()
}

func Open(cfg seedog.Config) (seedog.Sink, error) {
	opts, err := extractSinkOptions(cfg.Options)
	if err != nil {
		return nil, err
	}

	path := cfg.URL.Path
	if cfg.URL.Opaque != "" {
		path = cfg.URL.Opaque
	}

	var w io.WriteCloser
	if path == "" || path == "-" {
		log.Logf(1, "writing records to stdout")
		w = ioutil.NopWriteCloser(os.Stdout)
	} else {
		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if opts.Append {
			flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}
		f, err := os.OpenFile(path, flags, 0o600)
		if err != nil {
			return nil, err
		}
		log.Logf(1, "writing records to %s", path)
		w = f
	}

	if opts.Format == "msgpack" {
		return seedog.NewMsgpackSink(w), nil
	}
	return seedog.NewJSONSink(w), nil
}
