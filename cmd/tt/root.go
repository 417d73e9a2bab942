package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"time-ledger/internal/apiclient"
	"time-ledger/internal/store"
	"time-ledger/internal/tracker"

	"github.com/spf13/cobra"
)

// app is what every command runs against.
type app struct {
	settings *settings
	api      *apiclient.Client
	store    *store.Store
	out      io.Writer
	in       io.Reader
}

func (a *app) location() *time.Location {
	tz := strings.TrimSpace(a.settings.Timezone())
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}

// open reads the settings and builds the API client. The store is left nil.
func (a *app) open(cmd *cobra.Command) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	if a.settings, err = loadSettings(path); err != nil {
		return err
	}
	server := a.settings.Server()
	if flag, _ := cmd.Flags().GetString("server"); flag != "" {
		server = flag
	}
	a.api = apiclient.New(server, a.settings.Token())
	return nil
}

// load opens the app and fills the store from the server.
func (a *app) load(ctx context.Context, logger *log.Logger) error {
	if a.settings.Token() == "" {
		return errors.New("not logged in, run `tt login` first")
	}
	a.store = store.New(a.api, store.WithLocation(a.location()), store.WithLogger(logger))
	if err := a.store.Load(ctx); err != nil {
		if apiclient.IsUnauthorized(err) {
			return errors.New("session expired, run `tt login` again")
		}
		return err
	}
	return nil
}

// resolveClient accepts a client id or a case-insensitive name.
func (a *app) resolveClient(ref string) (tracker.Client, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return tracker.Client{}, tracker.ErrMissingClient
	}
	clients := a.store.Snapshot().Clients
	for _, c := range clients {
		if c.ID == ref {
			return c, nil
		}
	}
	for _, c := range clients {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return tracker.Client{}, fmt.Errorf("unknown client %q", ref)
}

// defaultClient is the most recently used client.
func (a *app) defaultClient() (tracker.Client, error) {
	clients := a.store.ClientsByRecency()
	if len(clients) == 0 {
		return tracker.Client{}, errors.New("no clients yet, run `tt clients add NAME`")
	}
	return clients[0], nil
}

func (a *app) clientFor(ref string) (tracker.Client, error) {
	if ref == "" {
		return a.defaultClient()
	}
	return a.resolveClient(ref)
}

// resolveEntry accepts a full id or a unique id prefix.
func (a *app) resolveEntry(ref string) (tracker.TimeEntry, error) {
	var found []tracker.TimeEntry
	for _, e := range a.store.Snapshot().Entries {
		if e.ID == ref {
			return e, nil
		}
		if strings.HasPrefix(e.ID, ref) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return tracker.TimeEntry{}, fmt.Errorf("no entry %q", ref)
	case 1:
		return found[0], nil
	default:
		return tracker.TimeEntry{}, fmt.Errorf("entry prefix %q is ambiguous", ref)
	}
}

func (a *app) password(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}
	if p := os.Getenv("TT_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(a.out, "Password: ")
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newRootCmd() *cobra.Command {
	a := &app{out: os.Stdout, in: os.Stdin}
	return newRootCmdFor(a)
}

func newRootCmdFor(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "tt",
		Short:         "Track time against a time-ledger server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.PersistentFlags().String("server", "", "server URL (default from tt.yaml)")

	// commands that need the loaded store
	withStore := func(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			if err := a.load(cmd.Context(), log.New(os.Stderr, "tt: ", 0)); err != nil {
				return err
			}
			return run(cmd, args)
		}
	}

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newClientsCmd(a, withStore),
		newStartCmd(a, withStore),
		newTimerCmd(a, withStore, "pause", "Pause the running timer", a.pause),
		newTimerCmd(a, withStore, "resume", "Resume the paused timer", a.resume),
		newTimerCmd(a, withStore, "stop", "Stop the active timer", a.stop),
		newStatusCmd(a),
		newAddCmd(a, withStore),
		newEditCmd(a, withStore),
		newRmCmd(a, withStore),
		newListCmd(a, withStore),
		newReportCmd(a, withStore),
		newBackupCmd(a),
		newUICmd(a),
	)
	return root
}
