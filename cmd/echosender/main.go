package main

import (
	"flag"
	"fmt"
	"log"

	rdt "github.com/PedroOzassa/rdt-go"
)

func main() {
	localAddr := flag.String("local", "127.0.0.1:0", "Local address to bind")
	remoteAddr := flag.String("remote", "127.0.0.1:8901", "Receiver address")
	variant := flag.String("variant", "gbn", "Protocol variant: stopwait, altbit, timed or gbn")
	configPath := flag.String("config", "", "Optional yaml config file")
	count := flag.Int("count", 10, "Number of messages to send")
	flag.Parse()

	config := rdt.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = rdt.ReadConfig(*configPath)
		if err != nil {
			log.Fatalln("Configuration file error:", err)
		}
	}

	sender, err := newSender(*variant, *localAddr, *remoteAddr, config.NewChannel(), config)
	if err != nil {
		log.Fatalln("Sender setup error:", err)
	}
	defer sender.Close()

	send := sender.Send
	if attempter, bounded := sender.(rdt.AttemptSender); bounded && config.RetryBudget > 0 {
		retry := &rdt.RetrySender{Sender: attempter, Budget: config.RetryBudget}
		send = retry.Send
	}

	log.Printf("Sender (%s) on %s, sending %d messages to %s", *variant, sender.LocalAddr(), *count, *remoteAddr)
	for i := 0; i < *count; i++ {
		message := []byte(fmt.Sprintf("msg_%d", i))
		if err := send(message); err != nil {
			log.Fatalln("Send error:", err)
		}
		log.Printf("Acknowledged: %s", message)
	}
}

func newSender(variant, localAddr, remoteAddr string, channel rdt.Channel, config *rdt.Config) (rdt.Sender, error) {
	switch variant {
	case "stopwait":
		return rdt.NewStopWaitSender(localAddr, remoteAddr, channel)
	case "altbit":
		return rdt.NewAlternatingBitSender(localAddr, remoteAddr, channel)
	case "timed":
		return rdt.NewTimedSender(localAddr, remoteAddr, channel, config)
	case "gbn":
		return rdt.NewGoBackNSender(localAddr, remoteAddr, channel, config)
	}
	return nil, fmt.Errorf("unknown variant %q", variant)
}
