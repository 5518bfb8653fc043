package main

import (
	"log"
	"os"
	_ "time/tzdata" // reset schedule and day labels need the zone database

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/metrics"
	"github.com/trezcool/carline/core/queue"
	"github.com/trezcool/carline/core/student"
	logsvc "github.com/trezcool/carline/services/logger"
	"github.com/trezcool/carline/storage/database"
	sqlxrepos "github.com/trezcool/carline/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.Conf

	// createdb runs before the app database exists
	if len(os.Args) > 1 && os.Args[1] == "createdb" {
		errAndDie(database.CreateIfNotExist(conf))
		return
	}

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	loc := conf.Queue.Location()
	campuses := sqlxrepos.NewCampusDirectory(db)

	// start CLI
	cli := commandLine{
		db: db.DB,
		queueSvc: queue.NewService(
			sqlxrepos.NewQueueStore(db),
			campuses,
			student.NewResolver(sqlxrepos.NewStudentRepository(db)),
			logsvc.NewRollbarLogger(logger, conf),
			queue.WithLocation(loc),
		),
		metricsSvc: metrics.NewService(sqlxrepos.NewHistoryRepository(db), sqlxrepos.NewSnapshotRepository(db), campuses, loc),
		loc:        loc,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
