package main

import (
	"context"
	"crypto/rsa"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"epf/internal/config"
	"epf/internal/kernel"
	"epf/internal/logging"
	"epf/internal/pipeline"
	"epf/internal/session"
)

func usage() {
	fmt.Fprintln(os.Stderr, "***************************************************")
	fmt.Fprintln(os.Stderr, "   epf - kernel entropy pool feeder")
	fmt.Fprintln(os.Stderr, "***************************************************")
	fmt.Fprintln(os.Stderr, "Usage: epf <path to epf.properties configuration file>")
	fmt.Fprintln(os.Stderr)
}

/*──────────────────────── main ─────────────────────────────────*/
func main() {
	lg := logging.New(os.Stderr)

	/* CLI */
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "missing command line arguments")
		usage()
		os.Exit(1)
	}

	/* configuration */
	cfg, err := config.Load(flag.Arg(0))
	if err != nil {
		lg.Error("configuration", err)
		os.Exit(1)
	}
	var pub *rsa.PublicKey
	if cfg.StreamEncrypted {
		if pub, err = session.LoadPublicKey(cfg.PubKeyPath); err != nil {
			lg.Error("configuration", err)
			os.Exit(1)
		}
	}

	/* kernel sink, opened before the loops so a privilege failure is a
	   startup failure */
	sink, err := kernel.OpenSink()
	if err != nil {
		lg.Error("kernel entropy sink", err)
		os.Exit(1)
	}
	bits, err := sink.EntropyBits()
	if err != nil {
		lg.Error("kernel entropy sink", err)
		sink.Close()
		os.Exit(1)
	}
	lg.Banner(sink.PoolBytes()*8, bits)

	/* pipeline goroutines */
	shared := pipeline.NewShared(cfg, pub, lg)
	ctx, cancel := context.WithCancel(context.Background())

	downDone := make(chan struct{})
	go func() {
		pipeline.NewDownloader(shared).Run(ctx)
		close(downDone)
	}()

	feedDone := make(chan struct{})
	go func() {
		pipeline.NewFeeder(shared, sink).Run(ctx)
		close(feedDone)
	}()

	/* join the feeder; a signal counts as an operational failure too */
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-feedDone:
		lg.Shutdown("feeder terminated")
	case <-sig:
		lg.Shutdown("signal")
	}

	/* stop the downloader and wait for both loops */
	shared.Fail()
	cancel()
	<-downDone
	<-feedDone

	// the loops only ever terminate on failure
	os.Exit(1)
}
