package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"slackbroker/broker"
)

func main() {
	_ = godotenv.Load()

	args, err := ParseArgs(os.Args[1:])
	if err != nil {
		panic(err)
	}
	if !args.Validate() {
		panic("missing arguments")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: args.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := broker.Start(context.Background(), args.Token, args.BrokerOptions(logger)...)
	if err != nil {
		panic(err)
	}

	for _, req := range args.InitialRequests() {
		if err := h.Send(req); err != nil {
			logger.Error("fail to send request", slog.String("request", req.String()), slog.Any("error", err))
		}
	}

	go func() {
		<-ctx.Done()
		logger.Info("signal received, closing broker")
		h.Close()
	}()

	for resp := range h.Responses() {
		logResponse(logger, resp)
	}
	h.Wait()
}
