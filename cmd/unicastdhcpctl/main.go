package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var (
	serverAddr  = flag.String("server", "localhost:50051", "unicastdhcp gateway address")
	metricsAddr = flag.String("metrics", "localhost:9100", "unicastdhcp exporter address")
)

func main() {
	flag.Parse()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	conn, err := grpc.NewClient(*serverAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", *serverAddr, err)
		fmt.Fprintf(os.Stderr, "Make sure unicastdhcpd is running with the gateway enabled\n")
		os.Exit(1)
	}
	defer conn.Close()

	cli := NewCLI(healthpb.NewHealthClient(conn), *serverAddr, *metricsAddr, os.Stdout)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cli.Stop()
		os.Exit(0)
	}()

	if flag.NArg() > 0 {
		if err := cli.Exec(flag.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
