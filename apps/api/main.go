package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // reset schedule and day labels need the zone database

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	echoapi "github.com/trezcool/carline/apps/api/echo"
	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/metrics"
	"github.com/trezcool/carline/core/queue"
	"github.com/trezcool/carline/core/student"
	"github.com/trezcool/carline/services/broadcast"
	emailsvc "github.com/trezcool/carline/services/email"
	logsvc "github.com/trezcool/carline/services/logger"
	"github.com/trezcool/carline/services/monitoring"
	"github.com/trezcool/carline/services/scheduler"
	"github.com/trezcool/carline/storage/database"
	sqlxrepos "github.com/trezcool/carline/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()
	if err = database.SetupMigrations(); err != nil {
		logger.Fatal(fmt.Sprintf("setting up migrations: %v", err), err)
	}
	if err = database.Migrate(db.DB); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// set up notifiers
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	notifiers := []queue.Notifier{monitoring.NewCollector(registry)}

	if conf.Redis.URL != "" {
		rdb, rErr := broadcast.NewRedisClient(conf.Redis.URL)
		if rErr != nil {
			logger.Fatal(fmt.Sprintf("connecting to redis: %v", rErr), rErr)
		}
		defer rdb.Close()
		notifiers = append(notifiers, broadcast.NewRedisPublisher(rdb, conf.Redis.ChannelPrefix, logger))
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	loc := conf.Queue.Location()
	campuses := sqlxrepos.NewCampusDirectory(db)
	queueSvc := queue.NewService(
		sqlxrepos.NewQueueStore(db),
		campuses,
		student.NewResolver(sqlxrepos.NewStudentRepository(db)),
		logger,
		queue.WithLocation(loc),
		queue.WithNotifiers(notifiers...),
		queue.WithActivityLimit(conf.Queue.RecentActivityLimit),
	)
	metricsSvc := metrics.NewService(
		sqlxrepos.NewHistoryRepository(db),
		sqlxrepos.NewSnapshotRepository(db),
		campuses,
		loc,
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	sched, err := scheduler.New(
		scheduler.Options{
			ResetSchedule:   conf.Queue.ResetSchedule,
			MetricsSchedule: conf.Queue.MetricsSchedule,
			Location:        loc,
			ReportTo:        conf.Queue.ResetReportTo,
		},
		queueSvc, metricsSvc, mailSvc, logger,
	)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up scheduler: %v", err), err)
	}
	sched.Start()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Address(),
		QueueSvc:       queueSvc,
		MetricsSvc:     metricsSvc,
		Gatherer:       registry,
		Logger:         logger,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests and jobs a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
	if err = sched.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop scheduler gracefully: %v", err), err)
	}
}
