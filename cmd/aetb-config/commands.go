package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.uber.org/zap"

	"github.com/eugenenazirov/aetb-config/internal/api"
	"github.com/eugenenazirov/aetb-config/internal/application"
	"github.com/eugenenazirov/aetb-config/internal/config"
	"github.com/eugenenazirov/aetb-config/internal/remote"
	"github.com/eugenenazirov/aetb-config/internal/remote/migrations"
	"github.com/eugenenazirov/aetb-config/internal/settings"
	"github.com/eugenenazirov/aetb-config/internal/storage"
)

var (
	errInvalidSettings = errors.New("configuration failed validation")
	errKeyNotFound     = errors.New("key not found")
	errNoCredentials   = errors.New("no remote credentials configured")
)

func runShow(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer) error {
	manager := application.NewManager(ctx, cfg, logger)
	defer manager.Close()

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("AETB CONFIGURATION")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Key", "Value"})
	t.AppendRows([]table.Row{
		{"(path)", manager.Path()},
		{"(source)", manager.State().String()},
		{"(remote)", manager.RemoteConnected()},
	})
	t.AppendSeparator()

	flat := flatten(manager.Raw())
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AppendRow(table.Row{k, flat[k]})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, WidthMax: 60},
	})
	t.Render()
	return nil
}

func runValidate(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer) error {
	manager := application.NewManager(ctx, cfg, logger)
	defer manager.Close()

	checks := []struct {
		section string
		check   func() error
	}{
		{settings.SectionTrading, func() error { _, err := manager.Trading(); return err }},
		{settings.SectionEvolution, func() error { _, err := manager.Evolution(); return err }},
		{settings.SectionRisk, func() error { _, err := manager.Risk(); return err }},
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Section", "Field", "Rule", "Problem"})

	failed := false
	for _, c := range checks {
		err := c.check()
		var verr *settings.ValidationError
		switch {
		case err == nil:
			t.AppendRow(table.Row{c.section, "", "", "ok"})
		case errors.As(err, &verr):
			failed = true
			for _, v := range verr.Violations {
				t.AppendRow(table.Row{c.section, v.Field, v.Rule, v.Message})
			}
		default:
			failed = true
			t.AppendRow(table.Row{c.section, "", "", err.Error()})
		}
	}
	t.Render()

	if failed {
		return errInvalidSettings
	}
	return nil
}

func runGet(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer, key string) error {
	manager := application.NewManager(ctx, cfg, logger)
	defer manager.Close()

	value, ok := manager.Raw().Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", errKeyNotFound, key)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func runMigrate(ctx context.Context, cfg config.Config, out io.Writer) error {
	if cfg.CredentialsPath == "" {
		return errNoCredentials
	}
	creds, err := remote.LoadCredentials(storage.NewFileStore(), cfg.CredentialsPath)
	if err != nil {
		return err
	}

	db, err := remote.OpenDB(ctx, creds)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Migrate(ctx, db); err != nil {
		return err
	}
	fmt.Fprintf(out, "migrated %s\n", remote.DocumentsTable)
	return nil
}

func runPush(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer) error {
	if cfg.CredentialsPath == "" {
		return errNoCredentials
	}

	local := cfg
	local.CredentialsPath = ""
	manager := application.NewManager(ctx, local, logger)

	creds, err := remote.LoadCredentials(storage.NewFileStore(), cfg.CredentialsPath)
	if err != nil {
		return err
	}
	src, err := remote.Open(ctx, creds, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	publisher, ok := src.(remote.Publisher)
	if !ok {
		return fmt.Errorf("%s backend does not accept uploads", creds.Backend)
	}
	if err := publisher.Publish(ctx, manager.Raw()); err != nil {
		return err
	}
	fmt.Fprintf(out, "pushed %s to %s\n", manager.Path(), creds.Backend)
	return nil
}

func runToken(cfg config.Config, out io.Writer, subject string, ttl time.Duration) error {
	if cfg.AdminTokenSecret == "" {
		return errors.New("AETB_ADMIN_TOKEN_SECRET is not set")
	}
	token, err := api.NewAdminTokens(cfg.AdminTokenSecret).Issue(subject, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

// flatten maps nested objects to dotted keys; arrays and scalars are rendered as JSON.
func flatten(raw settings.RawConfig) map[string]string {
	out := make(map[string]string)
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		if m, ok := v.(map[string]any); ok && len(m) > 0 {
			for k, child := range m {
				walk(prefix+"."+k, child)
			}
			return
		}
		data, err := json.Marshal(v)
		if err != nil {
			out[prefix] = fmt.Sprint(v)
			return
		}
		out[prefix] = string(data)
	}
	for k, v := range raw {
		walk(k, v)
	}
	return out
}
