package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"shopbot/config"
	"shopbot/pkg/projectlog"
	"shopbot/router"
	"shopbot/service/factory"

	"github.com/sirupsen/logrus"
)

func main() {
	defer func() {
		if serviceErr := recover(); serviceErr != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)
			log.Println("The service exits abnormally, error message:【", serviceErr, "】")
			log.Println("Stack info: ")
			fmt.Printf("==> %s\n", string(buf[:n]))
			os.Exit(1)
		}
	}()

	projectlog.Init()

	warmIndexes()

	go startServer()
	waitStop()
}

// warmIndexes loads persisted memories and document chunks into the in-process
// vector indexes so retrieval works from the first request.
func warmIndexes() {
	ctx := context.Background()
	services := factory.GetServiceFactory()

	if err := services.NewMemoryService().WarmIndex(ctx); err != nil {
		logrus.Errorf("failed to warm memory index: %v", err)
	}
	if err := services.NewDocumentService().WarmIndex(ctx); err != nil {
		logrus.Errorf("failed to warm document index: %v", err)
	}
}

func startServer() {
	addr := config.GetInstance().GetString(config.AppHost)
	if err := http.ListenAndServe(addr, router.GetInstance()); err != nil {
		logrus.Errorf("Failed to ListenAndServer at %v, err = %v", addr, err)
		os.Exit(1)
	}
}

func waitStop() {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	sig := <-sc
	log.Printf("exit: signal=<%d>.\n", sig)
	switch sig {
	case syscall.SIGTERM:
		log.Println("exit: bye :-).")
		os.Exit(0)
	default:
		log.Println("exit: bye :-(.")
		os.Exit(1)
	}
}
