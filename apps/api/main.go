package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/darasapp/darasa/apps/api/echo"
	"github.com/darasapp/darasa/core"
	"github.com/darasapp/darasa/core/attendance"
	"github.com/darasapp/darasa/core/user"
	emailsvc "github.com/darasapp/darasa/services/email"
	sendgridmail "github.com/darasapp/darasa/services/email/sendgrid"
	logsvc "github.com/darasapp/darasa/services/logger"
	"github.com/darasapp/darasa/storage/database"
	sqlxrepos "github.com/darasapp/darasa/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(std, err)
	defer db.Close()
	sdb := sqlx.NewDb(db, core.Conf.Database.Engine)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = sendgridmail.NewService(core.Conf, logger)
	}
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(sdb), mailSvc)
	attSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(sdb))

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Address:       core.Conf.Server.Addr(),
			UserSvc:       usrSvc,
			AttendanceSvc: attSvc,
			Logger:        logger,
			Shutdown:      func() { shutdown <- syscall.SIGTERM },
		},
	)
	go app.Start()

	<-shutdown
	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("stopping server", err)
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
