package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/isobit/seedog/internal"
	"github.com/isobit/seedog/internal/log"
)

var Scheme = &seedog.Scheme{
	Names: []string{"postgres", "postgresql"},
	Open:  Open,

	Description: `
Open inserts every registered record into a table (name, email, password
columns) on the specified PostgreSQL server. If the URL has a fragment, each
record is also sent as a JSON payload with NOTIFY on that channel.

Examples:
	seedog --out 'postgres://localhost/app' -o out.create
	seedog --out 'postgres://localhost/app#seeded' -o out.table=qa.users
	`,
	SinkOptionHelp: seedog.OptionsHelp{}.
		Add("create", "", "create the table if it does not exist").
		Add("table", "<NAME>", "table to insert into (default: seeded_users)"),
}

const defaultTable = "seeded_users"

type sinkOptions struct {
	Table  pgx.Identifier
	Create bool
}

func extractSinkOptions(opts seedog.Options) (sinkOptions, error) {
	o := sinkOptions{
		Table: pgx.Identifier{defaultTable},
	}

	if val, ok := opts.Pop("table"); ok {
		if val == "" {
			return o, fmt.Errorf("table must not be empty")
		}
		o.Table = pgx.Identifier(strings.Split(val, "."))
	}

	if _, ok := opts.Pop("create"); ok {
		o.Create = true
	}

	return o, opts.Done()
}

func createTableSQL(table pgx.Identifier) string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id bigserial PRIMARY KEY, name text NOT NULL, email text NOT NULL, password text NOT NULL, created_at timestamptz NOT NULL DEFAULT now())",
		table.Sanitize(),
	)
}

func insertSQL(table pgx.Identifier) string {
	return fmt.Sprintf("INSERT INTO %s (name, email, password) VALUES ($1, $2, $3)", table.Sanitize())
}

// Sink writes records over a single connection, one at a time.
type Sink struct {
	mu      sync.Mutex
	conn    *pgx.Conn
	name    string
	insert  string
	channel string
}

func Open(cfg seedog.Config) (seedog.Sink, error) {
	opts, err := extractSinkOptions(cfg.Options)
	if err != nil {
		return nil, err
	}

	connUrl, _ := seedog.SplitURLSubscheme(cfg.URL)
	channel := connUrl.Fragment
	connUrl.Fragment = ""

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, connUrl.String())
	if err != nil {
		return nil, err
	}

	cc := conn.Config()
	name := fmt.Sprintf("%s:%d", cc.Host, cc.Port)
	log.Logf(0, "connected: %s", name)

	if opts.Create {
		stmt := createTableSQL(opts.Table)
		log.Logf(1, "exec: %s", stmt)
		if _, err := conn.Exec(ctx, stmt); err != nil {
			conn.Close(ctx)
			return nil, fmt.Errorf("error creating table: %w", err)
		}
	}

	return &Sink{
		conn:    conn,
		name:    name,
		insert:  insertSQL(opts.Table),
		channel: channel,
	}, nil
}

func (s *Sink) Write(ctx context.Context, rec seedog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.conn.Exec(ctx, s.insert, rec.Name, rec.Email, rec.Password); err != nil {
		return err
	}
	if s.channel != "" {
		payload, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		log.Logf(2, "notify: %s", s.channel)
		if _, err := s.conn.Exec(ctx, "SELECT pg_notify($1, $2)", s.channel, string(payload)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Logf(1, "closed: %s", s.name)
	return s.conn.Close(context.Background())
}
