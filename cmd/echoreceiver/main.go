package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	rdt "github.com/PedroOzassa/rdt-go"
)

func main() {
	localAddr := flag.String("local", "127.0.0.1:8901", "Local address to listen on")
	variant := flag.String("variant", "gbn", "Protocol variant: stopwait, altbit, timed or gbn")
	configPath := flag.String("config", "", "Optional yaml config file")
	metricsAddr := flag.String("metrics", "", "Optional address to serve Prometheus metrics on")
	flag.Parse()

	config := rdt.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = rdt.ReadConfig(*configPath)
		if err != nil {
			log.Fatalln("Configuration file error:", err)
		}
	}

	stats := rdt.NewStats()
	if *metricsAddr != "" {
		if err := stats.Register(prometheus.DefaultRegisterer); err != nil {
			log.Fatalln("Metrics registration error:", err)
		}
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			log.Fatalln(http.ListenAndServe(*metricsAddr, nil))
		}()
	}

	deliver := func(payload []byte) {
		log.Printf("Delivered: %s", string(payload))
	}

	receiver, err := newReceiver(*variant, *localAddr, deliver, config.NewChannel())
	if err != nil {
		log.Fatalln("Receiver setup error:", err)
	}
	receiver.UseStats(stats)
	defer receiver.Close()

	log.Printf("Receiver (%s) listening on %s", *variant, receiver.LocalAddr())
	receiver.Loop()
}

type receiver interface {
	rdt.Receiver
	UseStats(*rdt.Stats)
}

func newReceiver(variant, localAddr string, deliver rdt.DeliverFunc, channel rdt.Channel) (receiver, error) {
	switch variant {
	case "stopwait":
		return rdt.NewStopWaitReceiver(localAddr, deliver, channel)
	case "altbit":
		return rdt.NewAlternatingBitReceiver(localAddr, deliver, channel)
	case "timed":
		return rdt.NewTimedReceiver(localAddr, deliver, channel)
	case "gbn":
		return rdt.NewGoBackNReceiver(localAddr, deliver, channel)
	}
	return nil, fmt.Errorf("unknown variant %q", variant)
}
