package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	echoapi "github.com/trezcool/carline/apps/api/echo"
	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/access"
	"github.com/trezcool/carline/core/history"
	"github.com/trezcool/carline/services/scheduler"
	"github.com/trezcool/carline/storage/database"
)

var (
	createDBFunc = database.CreateIfNotExist // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB
	queueSvc   scheduler.Resetter
	metricsSvc scheduler.Refresher
	loc        *time.Location
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  createdb - create the application role and database if missing")
	fmt.Fprintln(cli.out, "  reset - archive every waiting car now, as the nightly reset does")
	fmt.Fprintln(cli.out, "  refresh-metrics [-date YYYY-MM-DD] [-month YYYY-MM] - recompute metric snapshots (default: yesterday)")
	fmt.Fprintln(cli.out, "  token -id ID -role ROLE [-name] [-email] [-campuses a,b] [-allocate] [-dispatch] [-ttl 12h] - mint an API token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "createdb":
		return createDBFunc(core.Conf)
	case "reset":
		return cli.reset(ctx)
	case "refresh-metrics":
		return cli.refreshMetrics(ctx, args[2:])
	case "token":
		return cli.token(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) reset(ctx context.Context) error {
	res, err := cli.queueSvc.ScheduledClearAllQueues(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "archived %d entries on %d campuses (%d failed)\n", res.Entries, res.Campuses, res.Failed)
	return nil
}

func (cli *commandLine) refreshMetrics(ctx context.Context, args []string) error {
	cmd := flag.NewFlagSet("refresh-metrics", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	date := cmd.String("date", "", "Day to recompute, YYYY-MM-DD.")
	month := cmd.String("month", "", "Month to recompute, YYYY-MM.")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	yesterday := core.NowFunc().In(cli.loc).AddDate(0, 0, -1)
	if *date == "" && *month == "" {
		*date = yesterday.Format(history.DateLayout)
		*month = yesterday.Format(history.MonthLayout)
	}

	if *date != "" {
		day, err := time.ParseInLocation(history.DateLayout, *date, cli.loc)
		if err != nil {
			cmd.Usage()
			return errHelp
		}
		snaps, err := cli.metricsSvc.RefreshDay(ctx, day)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "refreshed %d day snapshots for %s\n", len(snaps), *date)
	}
	if *month != "" {
		m, err := time.ParseInLocation(history.MonthLayout, *month, cli.loc)
		if err != nil {
			cmd.Usage()
			return errHelp
		}
		snaps, err := cli.metricsSvc.RefreshMonth(ctx, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "refreshed %d month snapshots for %s\n", len(snaps), *month)
	}
	return nil
}

func (cli *commandLine) token(args []string) error {
	cmd := flag.NewFlagSet("token", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	id := cmd.String("id", "", "The principal's id at the identity provider.")
	name := cmd.String("name", "", "Display name.")
	email := cmd.String("email", "", "Email address.")
	role := cmd.String("role", "", "One of: superadmin, admin, allocator, dispatcher, operator, viewer.")
	campuses := cmd.String("campuses", "", "Comma separated campus ids.")
	allocate := cmd.Bool("allocate", false, "Operator may add and move cars.")
	dispatch := cmd.Bool("dispatch", false, "Operator may remove cars.")
	ttl := cmd.Duration("ttl", core.Conf.Server.JWTExpirationDelta, "Token lifetime.")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	r := access.Role(strings.ToLower(core.CleanString(*role)))
	if core.CleanString(*id) == "" || !r.IsValid() {
		cmd.Usage()
		return errHelp
	}

	p := access.Principal{
		ID:          core.CleanString(*id),
		Name:        core.CleanString(*name),
		Email:       core.CleanString(*email),
		Role:        r,
		Permissions: access.Permissions{Allocate: *allocate, Dispatch: *dispatch},
	}
	for _, c := range strings.Split(*campuses, ",") {
		if c = core.CleanString(c); c != "" {
			p.Campuses = append(p.Campuses, c)
		}
	}

	token, err := echoapi.GenerateToken(echoapi.GetPrincipalClaims(p, *ttl))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
