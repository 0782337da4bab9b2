// termibbl is a multiplayer drawing-and-guessing game for the terminal.
// This binary runs the game server: it accepts TCP (and optionally
// websocket) clients, matches them into rooms and drives the rounds.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"termibbl/internal"
	"termibbl/internal/config"
	"termibbl/internal/server"

	"github.com/benbjohnson/clock"
)

const shutdownGrace = 2 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "server":
		runServer(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s server [flags]

Run the game server. See '%s server -h' for flags.
`, os.Args[0], os.Args[0])
}

func runServer(args []string) {
	conf := config.Defaults
	conf.FromEnv()

	fs := flag.NewFlagSet("server", flag.ExitOnError)
	var (
		confFile      = fs.String("conf", "", "TOML configuration `file`")
		port          = fs.Uint("p", conf.Port, "`port` to listen on (required)")
		webPort       = fs.Uint("web-port", conf.WebPort, "`port` for the HTTP/websocket endpoint (0 disables)")
		showIP        = fs.Bool("y", conf.ShowPublicIP, "display the public IP on startup")
		roundDuration = fs.Uint("round-duration", conf.RoundDuration, "turn length in `seconds`")
		rounds        = fs.Uint("rounds", conf.Rounds, "number of `rounds` per game")
		dimensions    = fs.String("dimensions", conf.Dimensions, "canvas size as `WxH`")
		words         = fs.String("words", conf.WordFile, "word list `file`, one word per line")
		debug         = fs.Bool("debug", conf.Debug, "log protocol and scheduling chatter")
	)
	fs.Parse(args)

	if *confFile != "" {
		if err := conf.LoadFile(*confFile); err != nil {
			log.Println(err)
			os.Exit(1)
		}
	}

	// flags given explicitly win over file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			conf.Port = *port
		case "web-port":
			conf.WebPort = *webPort
		case "y":
			conf.ShowPublicIP = *showIP
		case "round-duration":
			conf.RoundDuration = *roundDuration
		case "rounds":
			conf.Rounds = *rounds
		case "dimensions":
			conf.Dimensions = *dimensions
		case "words":
			conf.WordFile = *words
		case "debug":
			conf.Debug = *debug
		}
	})

	if err := conf.Validate(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
	opts, err := conf.GameOpts()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
	if conf.Debug {
		internal.EnableDebug(os.Stderr)
	}

	gs := server.NewGameServer(opts, clock.New())
	if err := gs.Listen(fmt.Sprintf("127.0.0.1:%d", conf.Port)); err != nil {
		log.Printf("binding port %d: %v", conf.Port, err)
		os.Exit(1)
	}

	if conf.ShowPublicIP {
		if ip, err := publicIP(); err == nil {
			fmt.Printf("Your public IP is %s:%d\n", ip, conf.Port)
		} else {
			log.Printf("looking up public IP: %v", err)
		}
	}

	if conf.WebPort != 0 {
		web := &http.Server{
			Addr:    fmt.Sprintf(":%d", conf.WebPort),
			Handler: gs.Router(),
		}
		go func() {
			if err := web.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server: %v", err)
			}
		}()
		log.Printf("http endpoint on :%d", conf.WebPort)
	}

	go gs.Serve()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc

	log.Println("shutting down")
	gs.Shutdown(shutdownGrace)
}

// publicIP asks ifconfig.me, the same way a player would check by hand.
func publicIP() (string, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://ifconfig.me")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
